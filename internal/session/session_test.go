package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serial-telemetry/internal/transport"
)

func startSession(t *testing.T, h *fakeHandle, opts ...Option) (*Session, context.CancelFunc, <-chan error) {
	t.Helper()
	// Run outlives the test body, so it must not log through t
	s := New(h, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return s, cancel, done
}

func waitEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return nil
	}
}

func TestSessionDecodesTransportEvents(t *testing.T) {
	h := newFakeHandle()
	s, _, _ := startSession(t, h)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testPortConfig(t)))
	require.IsType(t, Connected{}, waitEvent(t, s))

	h.events <- transport.Received{Data: []byte("Current:-3\n")}
	ev := waitEvent(t, s)
	require.IsType(t, FieldUpdated{}, ev)
	assert.Equal(t, "-3", ev.(FieldUpdated).Value)

	state, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateConnected, state)
}

func TestSessionWriteTimesOutOnce(t *testing.T) {
	h := newFakeHandle()
	s, _, _ := startSession(t, h, WithWriteTimeout(50*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testPortConfig(t)))
	waitEvent(t, s)

	require.NoError(t, s.Write(ctx, []byte("hello")))
	assert.IsType(t, WriteTimeout{}, waitEvent(t, s))

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionConfirmedWriteDoesNotTimeOut(t *testing.T) {
	h := newFakeHandle()
	s, _, _ := startSession(t, h, WithWriteTimeout(100*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testPortConfig(t)))
	waitEvent(t, s)

	require.NoError(t, s.Write(ctx, []byte("hello")))
	h.events <- transport.Written{N: 5}
	assert.Equal(t, WriteFlushed{Bytes: 5}, waitEvent(t, s))

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSessionCommandsAfterStop(t *testing.T) {
	h := newFakeHandle()
	s, cancel, done := startSession(t, h)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testPortConfig(t)))
	waitEvent(t, s)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, h.isOpen())

	assert.ErrorIs(t, s.ClearAll(ctx), ErrClosed)
	for range s.Events() {
	}
}

func TestSessionWriteRequiresConnection(t *testing.T) {
	h := newFakeHandle()
	s, _, _ := startSession(t, h)

	assert.ErrorIs(t, s.Write(context.Background(), []byte("x")), ErrNotConnected)
}
