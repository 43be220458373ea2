// Package models holds dashboard state that is independent of rendering
package models

import (
	"time"

	"github.com/allbin/serial-telemetry/internal/protocol"
)

// DefaultValue is shown for a field that has not been received or was
// cleared
const DefaultValue = "0"

// Entry is the display state of one field
type Entry struct {
	Field   protocol.Field
	Value   string
	Updated time.Time // zero when never updated or cleared
}

// SinkTable keeps the last value of every telemetry field
type SinkTable struct {
	entries map[protocol.Field]Entry
}

// NewSinkTable returns a table with every field at DefaultValue
func NewSinkTable() *SinkTable {
	s := &SinkTable{}
	s.Reset()
	return s
}

// Set stores the value of one field
func (s *SinkTable) Set(f protocol.Field, value string, at time.Time) {
	s.entries[f] = Entry{Field: f, Value: value, Updated: at}
}

// Get returns the current value of a field
func (s *SinkTable) Get(f protocol.Field) string {
	if e, ok := s.entries[f]; ok {
		return e.Value
	}
	return DefaultValue
}

// Reset puts every field back to DefaultValue
func (s *SinkTable) Reset() {
	s.entries = make(map[protocol.Field]Entry, len(protocol.Fields()))
	for _, f := range protocol.Fields() {
		s.entries[f] = Entry{Field: f, Value: DefaultValue}
	}
}

// Entries returns every field in display order
func (s *SinkTable) Entries() []Entry {
	fields := protocol.Fields()
	out := make([]Entry, 0, len(fields))
	for _, f := range fields {
		out = append(out, s.entries[f])
	}
	return out
}
