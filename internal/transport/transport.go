// Package transport adapts serial port drivers to an event driven handle.
// A Handle owns one open port at a time; everything it observes (received
// bytes, drained writes, failures) is delivered on its Events channel.
package transport

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	serial "github.com/allbin/serial-telemetry"
)

var (
	ErrAlreadyOpen   = errors.New("transport already open")
	ErrUnknownDriver = errors.New("unknown transport driver")
)

// ErrorKind classifies failures reported on the event channel
type ErrorKind int

const (
	ReadError ErrorKind = iota
	WriteError
	// ResourceError means the device is gone or no longer usable. The
	// connection cannot recover and must be reopened.
	ResourceError
)

func (k ErrorKind) String() string {
	switch k {
	case ReadError:
		return "read"
	case WriteError:
		return "write"
	case ResourceError:
		return "resource"
	default:
		return "unknown"
	}
}

// Event is delivered on Handle.Events
type Event interface {
	isEvent()
}

// Received carries a chunk of bytes read from the device
type Received struct {
	Data []byte
}

// Written reports that N previously accepted bytes have left the port
type Written struct {
	N int
}

// Failure reports an error observed outside of a direct call
type Failure struct {
	Kind ErrorKind
	Err  error
}

func (Received) isEvent() {}
func (Written) isEvent()  {}
func (Failure) isEvent()  {}

// Handle is an open duplex byte stream to a serial device
type Handle interface {
	Open(cfg serial.PortConfig) error
	// Write returns how many bytes the port accepted. Accepted bytes are
	// later confirmed with a Written event.
	Write(p []byte) (int, error)
	// Close is a no-op on a handle that is not open
	Close() error
	// Events belongs to the current connection: it is nil while closed and
	// replaced on every Open, so callers re-read it after reopening
	Events() <-chan Event
	// PortName is the device of the last Open call
	PortName() string
	// ErrorString describes the last error the handle saw
	ErrorString() string
}

// Drivers lists the names accepted by New
func Drivers() []string {
	return []string{"termios", "bugst"}
}

// New returns a handle backed by the named driver
func New(driver string, logger *zap.Logger) (Handle, error) {
	switch strings.ToLower(driver) {
	case "", "termios":
		return NewTermios(logger), nil
	case "bugst":
		return NewBugst(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
