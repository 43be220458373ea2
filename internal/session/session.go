package session

import (
	"context"
	"time"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/transport"
)

const eventBufferSize = 256

// timerDeadline is a Deadline backed by a stopped time.Timer. Stop and
// Reset guarantee no stale value is received afterwards.
type timerDeadline struct {
	t *time.Timer
}

func newTimerDeadline() *timerDeadline {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &timerDeadline{t: t}
}

func (d *timerDeadline) Arm(timeout time.Duration) { d.t.Reset(timeout) }
func (d *timerDeadline) Disarm()                   { d.t.Stop() }

// Session owns a Controller and serialises commands, transport events
// and deadline expiry through a single goroutine started by Run.
type Session struct {
	handle   transport.Handle
	deadline *timerDeadline
	ctrl     *Controller

	cmds    chan func(*Controller)
	events  chan Event
	stopped chan struct{}
	runCtx  context.Context
}

// New returns a session over h. Call Run before issuing commands.
func New(h transport.Handle, opts ...Option) *Session {
	s := &Session{
		handle:   h,
		deadline: newTimerDeadline(),
		cmds:     make(chan func(*Controller)),
		events:   make(chan Event, eventBufferSize),
		stopped:  make(chan struct{}),
		runCtx:   context.Background(),
	}
	s.ctrl = NewController(h, s.deadline, s.emit, opts...)
	return s
}

// Events delivers controller events in order. It is closed when Run
// returns.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.runCtx.Done():
	}
}

// Run processes commands and transport events until ctx is done. An open
// connection is closed on the way out.
func (s *Session) Run(ctx context.Context) error {
	s.runCtx = ctx
	defer close(s.events)
	defer close(s.stopped)

	for {
		select {
		case <-ctx.Done():
			if s.ctrl.State() == StateConnected {
				s.ctrl.Disconnect()
			}
			s.deadline.Disarm()
			return ctx.Err()

		case cmd := <-s.cmds:
			cmd(s.ctrl)

		case ev := <-s.handle.Events():
			s.ctrl.HandleTransport(ev)

		case <-s.deadline.t.C:
			s.ctrl.DeadlineElapsed()
		}
	}
}

// do runs fn on the session goroutine and waits for its result
func (s *Session) do(ctx context.Context, fn func(*Controller) error) error {
	result := make(chan error, 1)
	cmd := func(c *Controller) { result <- fn(c) }

	select {
	case s.cmds <- cmd:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect opens the port described by cfg
func (s *Session) Connect(ctx context.Context, cfg serial.PortConfig) error {
	return s.do(ctx, func(c *Controller) error { return c.Connect(cfg) })
}

// Disconnect closes the port
func (s *Session) Disconnect(ctx context.Context) error {
	return s.do(ctx, func(c *Controller) error { return c.Disconnect() })
}

// Write sends data and tracks its confirmation
func (s *Session) Write(ctx context.Context, data []byte) error {
	buf := append([]byte(nil), data...)
	return s.do(ctx, func(c *Controller) error { return c.Write(buf) })
}

// ClearAll emits AllCleared
func (s *Session) ClearAll(ctx context.Context) error {
	return s.do(ctx, func(c *Controller) error {
		c.ClearAll()
		return nil
	})
}

// State reports the connection state
func (s *Session) State(ctx context.Context) (State, error) {
	var state State
	err := s.do(ctx, func(c *Controller) error {
		state = c.State()
		return nil
	})
	return state, err
}
