package session

import "github.com/allbin/serial-telemetry/internal/protocol"

// State is the connection state of a Controller
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "Connected"
	}
	return "Disconnected"
}

// Event is emitted by the controller for the display layer
type Event interface {
	isEvent()
}

// Connected reports a successful connect with a localized summary
type Connected struct {
	Summary string
}

// Disconnected is emitted on every disconnect, requested or forced
type Disconnected struct{}

// OpenError carries the transport's description of a failed open
type OpenError struct {
	Text string
}

// CriticalError reports a lost device. A Disconnected event follows.
type CriticalError struct {
	Text string
}

// WriteError reports a write the transport did not fully accept
type WriteError struct {
	Text string
}

// WriteTimeout reports written bytes that were not confirmed in time
type WriteTimeout struct {
	Text string
}

// WriteFlushed reports that every accepted byte has been confirmed
type WriteFlushed struct {
	Bytes int64
}

// FieldUpdated carries one decoded telemetry value
type FieldUpdated struct {
	Field  protocol.Field
	Value  string
	Record protocol.Record
}

// AllCleared asks the display to reset every field to its default
type AllCleared struct{}

func (Connected) isEvent()     {}
func (Disconnected) isEvent()  {}
func (OpenError) isEvent()     {}
func (CriticalError) isEvent() {}
func (WriteError) isEvent()    {}
func (WriteTimeout) isEvent()  {}
func (WriteFlushed) isEvent()  {}
func (FieldUpdated) isEvent()  {}
func (AllCleared) isEvent()    {}
