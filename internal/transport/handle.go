package transport

import (
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	serial "github.com/allbin/serial-telemetry"
)

const (
	eventBufferSize = 64
	readBufferSize  = 1024
	readRetryDelay  = 100 * time.Millisecond
	defaultReadWait = 100 * time.Millisecond
	unknownError    = "Unknown error"
)

// rawPort is the subset of a driver port the handle needs. Read must
// return periodically (0, nil on timeout) so Close can stop the reader.
type rawPort interface {
	io.ReadWriteCloser
	Drain() error
}

type opener func(cfg serial.PortConfig) (rawPort, error)

type classifier func(err error) ErrorKind

// conn is the state of one open port. A new conn is created per Open so
// workers of a closed connection never touch the next one.
type conn struct {
	port     rawPort
	events   chan Event
	done     chan struct{}
	drainReq chan struct{}
	reader   sync.WaitGroup

	mu        sync.Mutex
	undrained int
}

func (c *conn) closing() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// handle runs one reader and one drain worker per open connection
type handle struct {
	driver   string
	open     opener
	classify classifier
	logger   *zap.Logger

	mu      sync.Mutex
	conn    *conn
	name    string
	lastErr error
}

var _ Handle = (*handle)(nil)

func newHandle(driver string, open opener, classify classifier, logger *zap.Logger) *handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &handle{
		driver:   driver,
		open:     open,
		classify: classify,
		logger:   logger.Named("transport").With(zap.String("driver", driver)),
	}
}

// Events returns the channel of the open connection, or nil when closed.
// Events still queued from a closed connection are never delivered.
func (h *handle) Events() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	return h.conn.events
}

func (h *handle) PortName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

func (h *handle) ErrorString() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastErr == nil {
		return unknownError
	}
	return h.lastErr.Error()
}

func (h *handle) setErr(err error) {
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
}

func (h *handle) Open(cfg serial.PortConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil {
		return ErrAlreadyOpen
	}

	h.name = cfg.Name
	p, err := h.open(cfg)
	if err != nil {
		h.lastErr = err
		h.logger.Warn("Failed to open port", zap.String("port", cfg.Name), zap.Error(err))
		return err
	}

	c := &conn{
		port:     p,
		events:   make(chan Event, eventBufferSize),
		done:     make(chan struct{}),
		drainReq: make(chan struct{}, 1),
	}
	h.conn = c
	h.lastErr = nil

	c.reader.Add(1)
	go h.readLoop(c)
	go h.drainLoop(c)

	h.logger.Info("Port opened", zap.String("port", cfg.Name), zap.String("mode", cfg.Short()))
	return nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	c := h.conn
	if c == nil {
		h.mu.Unlock()
		return nil
	}
	h.conn = nil
	close(c.done)
	h.mu.Unlock()

	err := c.port.Close()
	// The drain worker may be stuck on a stalled transmitter; only the
	// reader is waited for.
	c.reader.Wait()

	if err != nil && !errors.Is(err, serial.ErrPortClosed) {
		h.setErr(err)
		h.logger.Warn("Close failed", zap.Error(err))
		return err
	}
	h.logger.Info("Port closed", zap.String("port", h.PortName()))
	return nil
}

func (h *handle) Write(data []byte) (int, error) {
	h.mu.Lock()
	c := h.conn
	h.mu.Unlock()

	if c == nil {
		h.setErr(serial.ErrPortClosed)
		return 0, serial.ErrPortClosed
	}

	n, err := c.port.Write(data)
	if err != nil {
		h.setErr(err)
	}
	if n > 0 {
		c.mu.Lock()
		c.undrained += n
		c.mu.Unlock()
		select {
		case c.drainReq <- struct{}{}:
		default:
		}
	}
	return n, err
}

// emit blocks until the event is queued or the connection is closed
func (h *handle) emit(c *conn, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (h *handle) fail(c *conn, err error) ErrorKind {
	kind := h.classify(err)
	h.setErr(err)
	h.logger.Warn("Port failure", zap.Stringer("kind", kind), zap.Error(err))
	h.emit(c, Failure{Kind: kind, Err: err})
	return kind
}

func (h *handle) readLoop(c *conn) {
	defer c.reader.Done()

	buf := make([]byte, readBufferSize)
	for !c.closing() {
		n, err := c.port.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !h.emit(c, Received{Data: data}) {
				return
			}
		}
		if err == nil {
			continue
		}
		if c.closing() {
			return
		}
		if errors.Is(err, io.EOF) {
			err = serial.ErrDeviceLost
		}
		if h.fail(c, err) == ResourceError {
			return
		}
		select {
		case <-c.done:
			return
		case <-time.After(readRetryDelay):
		}
	}
}

// drainLoop confirms accepted bytes once the driver reports them sent
func (h *handle) drainLoop(c *conn) {
	for {
		select {
		case <-c.done:
			return
		case <-c.drainReq:
		}

		c.mu.Lock()
		n := c.undrained
		c.mu.Unlock()
		if n == 0 {
			continue
		}

		if err := c.port.Drain(); err != nil {
			if c.closing() {
				return
			}
			h.fail(c, err)
			continue
		}
		if c.closing() {
			return
		}

		c.mu.Lock()
		c.undrained -= n
		c.mu.Unlock()
		h.emit(c, Written{N: n})
	}
}
