// Package session drives one serial telemetry session: connecting,
// tracking writes against a deadline and turning received bytes into
// field updates.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/transport"
)

// DefaultWriteTimeout is how long written bytes may stay unconfirmed
const DefaultWriteTimeout = 5 * time.Second

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrOpenFailed       = errors.New("failed to open port")
	ErrClosed           = errors.New("session closed")
)

type options struct {
	writeTimeout time.Duration
	framing      protocol.Framing
	lang         language.Tag
	logger       *zap.Logger
}

// Option configures a Controller or Session
type Option func(*options)

// WithWriteTimeout sets how long a write may wait for confirmation
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithFraming selects how received bytes are split into lines
func WithFraming(f protocol.Framing) Option {
	return func(o *options) { o.framing = f }
}

// WithLanguage selects the language of user facing event texts
func WithLanguage(tag language.Tag) Option {
	return func(o *options) { o.lang = tag }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		writeTimeout: DefaultWriteTimeout,
		framing:      protocol.FramingBuffer,
		lang:         language.English,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Controller is the session state machine. Every method must be called
// from the same goroutine; Session provides that goroutine.
type Controller struct {
	handle    transport.Handle
	tracker   *WriteTracker
	assembler *protocol.Assembler
	printer   *message.Printer
	emit      func(Event)

	baseLogger *zap.Logger
	logger     *zap.Logger

	state State
}

// NewController wires a controller to a transport handle and deadline.
// emit receives every event in order.
func NewController(h transport.Handle, deadline Deadline, emit func(Event), opts ...Option) *Controller {
	o := buildOptions(opts)
	logger := o.logger.Named("session")
	return &Controller{
		handle:     h,
		tracker:    NewWriteTracker(deadline, o.writeTimeout),
		assembler:  protocol.NewAssembler(o.framing),
		printer:    newPrinter(o.lang),
		emit:       emit,
		baseLogger: logger,
		logger:     logger,
	}
}

// State returns the current connection state
func (c *Controller) State() State {
	return c.state
}

// Pending returns the number of unconfirmed written bytes
func (c *Controller) Pending() int64 {
	return c.tracker.Pending()
}

// Connect opens the transport. A failure leaves the controller
// disconnected and emits OpenError.
func (c *Controller) Connect(cfg serial.PortConfig) error {
	if c.state == StateConnected {
		return ErrAlreadyConnected
	}

	c.logger = c.baseLogger.With(
		zap.String("session_id", uuid.NewString()),
		zap.String("port", cfg.Name),
	)

	if err := c.handle.Open(cfg); err != nil {
		text := c.handle.ErrorString()
		c.logger.Warn("Open failed", zap.Error(err))
		c.emit(OpenError{Text: text})
		return fmt.Errorf("%w %s: %w", ErrOpenFailed, cfg.Name, err)
	}

	c.state = StateConnected
	c.assembler.Reset()
	c.tracker.Reset()

	summary := c.summary(cfg)
	c.logger.Info("Connected", zap.String("mode", cfg.Short()))
	c.emit(Connected{Summary: summary})
	return nil
}

func (c *Controller) summary(cfg serial.PortConfig) string {
	f := cfg.SummaryFields()
	return c.printer.Sprintf(msgConnectedTo, cfg.Name, f[0], f[1], f[2], f[3], f[4])
}

// Disconnect closes the transport if it is open. It always ends
// disconnected and always emits Disconnected.
func (c *Controller) Disconnect() error {
	err := c.handle.Close()
	if err != nil {
		c.logger.Warn("Close failed", zap.Error(err))
	}

	c.tracker.Reset()
	c.assembler.Reset()
	c.state = StateDisconnected

	c.logger.Info("Disconnected")
	c.emit(Disconnected{})
	return err
}

// Write sends data through the write tracker
func (c *Controller) Write(data []byte) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}

	n, err := c.tracker.Write(c.handle, data)
	if err != nil {
		c.logger.Warn("Write failed", zap.Int("accepted", n), zap.Int("size", len(data)), zap.Error(err))
		c.emit(WriteError{Text: c.printer.Sprintf(msgWriteFailed, c.handle.PortName(), c.handle.ErrorString())})
		return err
	}

	c.logger.Debug("Write queued", zap.Int("bytes", n), zap.Int64("pending", c.tracker.Pending()))
	return nil
}

// ClearAll asks the display to reset every field
func (c *Controller) ClearAll() {
	c.emit(AllCleared{})
}

// DeadlineElapsed is called when the write deadline fires
func (c *Controller) DeadlineElapsed() {
	if !c.tracker.Elapsed() {
		return
	}

	c.logger.Warn("Write timed out", zap.Int64("pending", c.tracker.Pending()))
	c.emit(WriteTimeout{Text: c.printer.Sprintf(msgWriteTimeout, c.handle.PortName(), c.handle.ErrorString())})
}

// HandleTransport processes one event from the transport handle
func (c *Controller) HandleTransport(ev transport.Event) {
	switch ev := ev.(type) {
	case transport.Received:
		c.received(ev.Data)

	case transport.Written:
		if c.state != StateConnected {
			return
		}
		if flushed := c.tracker.Confirm(ev.N); flushed > 0 {
			c.logger.Debug("Write flushed", zap.Int64("bytes", flushed))
			c.emit(WriteFlushed{Bytes: flushed})
		}

	case transport.Failure:
		if ev.Kind != transport.ResourceError {
			c.logger.Warn("Transport error", zap.Stringer("kind", ev.Kind), zap.Error(ev.Err))
			return
		}
		if c.state != StateConnected {
			return
		}
		c.logger.Error("Device lost", zap.Error(ev.Err))
		c.emit(CriticalError{Text: c.handle.ErrorString()})
		c.Disconnect()
	}
}

func (c *Controller) received(chunk []byte) {
	if c.state != StateConnected {
		return
	}

	c.assembler.Feed(chunk)
	for {
		line, ok := c.assembler.Next()
		if !ok {
			return
		}

		rec, ok := protocol.Decode(line)
		if !ok {
			c.logger.Debug("Ignored line", zap.ByteString("line", line))
			continue
		}

		c.logger.Debug("Telemetry", zap.String("field", rec.Name), zap.String("value", rec.Text))
		c.emit(FieldUpdated{Field: rec.Field, Value: rec.Text, Record: rec})
	}
}
