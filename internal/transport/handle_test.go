package transport

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	serial "github.com/allbin/serial-telemetry"
)

// fakePort serves reads from a channel and records writes
type fakePort struct {
	reads    chan []byte
	readErrs chan error
	closed   chan struct{}
	drained  chan struct{}

	mu       sync.Mutex
	written  []byte
	accept   int // bytes accepted per Write, -1 for all
	writeErr error
	drainErr error
	isClosed bool
}

func newFakePort() *fakePort {
	return &fakePort{
		reads:    make(chan []byte, 8),
		readErrs: make(chan error, 1),
		closed:   make(chan struct{}),
		drained:  make(chan struct{}, 8),
		accept:   -1,
	}
}

func (f *fakePort) Read(buf []byte) (int, error) {
	select {
	case d := <-f.reads:
		return copy(buf, d), nil
	case err := <-f.readErrs:
		return 0, err
	case <-f.closed:
		return 0, serial.ErrPortClosed
	case <-time.After(10 * time.Millisecond):
		return 0, nil
	}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(p)
	if f.accept >= 0 && f.accept < n {
		n = f.accept
	}
	f.written = append(f.written, p[:n]...)
	return n, f.writeErr
}

func (f *fakePort) Drain() error {
	f.mu.Lock()
	err := f.drainErr
	f.mu.Unlock()
	f.drained <- struct{}{}
	return err
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isClosed {
		return serial.ErrPortClosed
	}
	f.isClosed = true
	close(f.closed)
	return nil
}

func openFake(t *testing.T, fp *fakePort) *handle {
	t.Helper()
	h := newHandle("fake", func(serial.PortConfig) (rawPort, error) {
		return fp, nil
	}, classifyTermios, zaptest.NewLogger(t))

	pc, err := serial.NewPortConfig("/dev/ttyFAKE0")
	require.NoError(t, err)
	require.NoError(t, h.Open(pc))
	t.Cleanup(func() { h.Close() })
	return h
}

func nextEvent(t *testing.T, h Handle) Event {
	t.Helper()
	select {
	case ev := <-h.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return nil
	}
}

func TestHandleDeliversReceivedBytes(t *testing.T) {
	fp := newFakePort()
	h := openFake(t, fp)

	fp.reads <- []byte("PowerStep:12.5\n")

	ev := nextEvent(t, h)
	require.IsType(t, Received{}, ev)
	assert.Equal(t, "PowerStep:12.5\n", string(ev.(Received).Data))
	assert.Equal(t, "/dev/ttyFAKE0", h.PortName())
}

func TestHandleConfirmsWrites(t *testing.T) {
	fp := newFakePort()
	h := openFake(t, fp)

	n, err := h.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	ev := nextEvent(t, h)
	assert.Equal(t, Written{N: 5}, ev)

	fp.mu.Lock()
	assert.Equal(t, "hello", string(fp.written))
	fp.mu.Unlock()
}

func TestHandleShortWriteKeepsError(t *testing.T) {
	fp := newFakePort()
	fp.accept = 2
	fp.writeErr = errors.New("resource temporarily unavailable")
	h := openFake(t, fp)

	n, err := h.Write([]byte("hello"))
	assert.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "resource temporarily unavailable", h.ErrorString())

	// Accepted bytes are still confirmed
	assert.Equal(t, Written{N: 2}, nextEvent(t, h))
}

func TestHandleDrainFailureIsReported(t *testing.T) {
	fp := newFakePort()
	fp.drainErr = errors.New("drain: broken")
	h := openFake(t, fp)

	_, err := h.Write([]byte("x"))
	require.NoError(t, err)

	ev := nextEvent(t, h)
	require.IsType(t, Failure{}, ev)
	assert.Equal(t, ReadError, ev.(Failure).Kind)
	assert.Equal(t, "drain: broken", h.ErrorString())
}

func TestHandleResourceFailureStopsReader(t *testing.T) {
	fp := newFakePort()
	h := openFake(t, fp)

	fp.readErrs <- serial.ErrDeviceLost

	ev := nextEvent(t, h)
	require.IsType(t, Failure{}, ev)
	assert.Equal(t, ResourceError, ev.(Failure).Kind)
	assert.ErrorIs(t, ev.(Failure).Err, serial.ErrDeviceLost)

	require.NoError(t, h.Close())
}

func TestHandleEOFIsResourceLoss(t *testing.T) {
	fp := newFakePort()
	h := openFake(t, fp)

	fp.readErrs <- io.EOF

	ev := nextEvent(t, h)
	require.IsType(t, Failure{}, ev)
	assert.Equal(t, ResourceError, ev.(Failure).Kind)
}

func TestHandleOpenFailure(t *testing.T) {
	openErr := errors.New("open /dev/ttyNOPE: serial device not found")
	h := newHandle("fake", func(serial.PortConfig) (rawPort, error) {
		return nil, openErr
	}, classifyTermios, nil)

	assert.Equal(t, "Unknown error", h.ErrorString())

	pc, err := serial.NewPortConfig("/dev/ttyNOPE")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Open(pc), openErr)
	assert.Equal(t, openErr.Error(), h.ErrorString())
	assert.Equal(t, "/dev/ttyNOPE", h.PortName())

	// Nothing is open
	assert.NoError(t, h.Close())
	_, err = h.Write([]byte("x"))
	assert.ErrorIs(t, err, serial.ErrPortClosed)
}

func TestHandleOpenTwice(t *testing.T) {
	fp := newFakePort()
	h := openFake(t, fp)

	pc, err := serial.NewPortConfig("/dev/ttyFAKE1")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Open(pc), ErrAlreadyOpen)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}

func TestHandleReopenUsesFreshConnection(t *testing.T) {
	first, second := newFakePort(), newFakePort()
	ports := []*fakePort{first, second}
	h := newHandle("fake", func(serial.PortConfig) (rawPort, error) {
		p := ports[0]
		ports = ports[1:]
		return p, nil
	}, classifyTermios, nil)

	pc, err := serial.NewPortConfig("/dev/ttyFAKE0")
	require.NoError(t, err)

	require.NoError(t, h.Open(pc))
	require.NoError(t, h.Close())
	require.NoError(t, h.Open(pc))
	t.Cleanup(func() { h.Close() })

	second.reads <- []byte("Power:1\n")
	ev := nextEvent(t, h)
	require.IsType(t, Received{}, ev)
	assert.Equal(t, "Power:1\n", string(ev.(Received).Data))
}

func TestHandleReopenDropsQueuedEvents(t *testing.T) {
	first, second := newFakePort(), newFakePort()
	ports := []*fakePort{first, second}
	h := newHandle("fake", func(serial.PortConfig) (rawPort, error) {
		p := ports[0]
		ports = ports[1:]
		return p, nil
	}, classifyTermios, nil)

	pc, err := serial.NewPortConfig("/dev/ttyFAKE0")
	require.NoError(t, err)

	require.NoError(t, h.Open(pc))
	stale := h.Events()
	first.reads <- []byte("Current:99\n")
	require.Eventually(t, func() bool { return len(stale) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.Close())
	assert.Nil(t, h.Events())

	require.NoError(t, h.Open(pc))
	t.Cleanup(func() { h.Close() })

	select {
	case ev := <-h.Events():
		t.Fatalf("event from the closed connection delivered after reopen: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	second.reads <- []byte("Power:1\n")
	ev := nextEvent(t, h)
	require.IsType(t, Received{}, ev)
	assert.Equal(t, "Power:1\n", string(ev.(Received).Data))
}

func TestNewDriver(t *testing.T) {
	for _, name := range Drivers() {
		h, err := New(name, nil)
		require.NoError(t, err, name)
		assert.NotNil(t, h)
	}

	_, err := New("winapi", nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "resource", ResourceError.String())
	assert.Equal(t, "read", ReadError.String())
	assert.Equal(t, "write", WriteError.String())
	assert.Equal(t, "unknown", ErrorKind(9).String())
}
