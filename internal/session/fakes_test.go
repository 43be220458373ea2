package session

import (
	"sync"
	"time"

	serial "github.com/allbin/serial-telemetry"
	"github.com/allbin/serial-telemetry/internal/transport"
)

// fakeHandle is a scriptable transport.Handle
type fakeHandle struct {
	events chan transport.Event

	mu       sync.Mutex
	openErr  error
	accept   int // bytes accepted per Write, -1 for all
	writeErr error
	name     string
	lastErr  string
	open     bool
	opens    int
	closes   int
	written  []byte
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		events: make(chan transport.Event, 16),
		accept: -1,
	}
}

func (f *fakeHandle) Open(cfg serial.PortConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = cfg.Name
	if f.openErr != nil {
		f.lastErr = f.openErr.Error()
		return f.openErr
	}
	f.open = true
	f.opens++
	return nil
}

func (f *fakeHandle) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(p)
	if f.accept >= 0 && f.accept < n {
		n = f.accept
	}
	f.written = append(f.written, p[:n]...)
	if f.writeErr != nil {
		f.lastErr = f.writeErr.Error()
	}
	return n, f.writeErr
}

func (f *fakeHandle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.closes++
	}
	f.open = false
	return nil
}

func (f *fakeHandle) Events() <-chan transport.Event { return f.events }

func (f *fakeHandle) PortName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

func (f *fakeHandle) ErrorString() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastErr == "" {
		return "Unknown error"
	}
	return f.lastErr
}

func (f *fakeHandle) isOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// fakeDeadline records arming without any real timer
type fakeDeadline struct {
	armed   bool
	arms    int
	timeout time.Duration
}

func (d *fakeDeadline) Arm(timeout time.Duration) {
	d.armed = true
	d.arms++
	d.timeout = timeout
}

func (d *fakeDeadline) Disarm() { d.armed = false }

// recorder collects emitted events
type recorder struct {
	events []Event
}

func (r *recorder) emit(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) reset() { r.events = nil }

func (r *recorder) fieldUpdates() []FieldUpdated {
	var out []FieldUpdated
	for _, ev := range r.events {
		if fu, ok := ev.(FieldUpdated); ok {
			out = append(out, fu)
		}
	}
	return out
}
