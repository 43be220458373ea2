package protocol

import (
	"bytes"
	"fmt"
	"strings"
)

// Framing selects how the Assembler cuts lines out of its buffer
type Framing int

const (
	// FramingBuffer treats the whole buffer as one line as soon as it
	// contains a newline. Bytes after the newline are discarded.
	FramingBuffer Framing = iota
	// FramingLine cuts at the first newline and keeps the remainder for
	// the next call to Next.
	FramingLine
)

func (f Framing) String() string {
	switch f {
	case FramingBuffer:
		return "buffer"
	case FramingLine:
		return "line"
	default:
		return "unknown"
	}
}

// ParseFraming converts a config value into a Framing
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buffer":
		return FramingBuffer, nil
	case "line":
		return FramingLine, nil
	default:
		return FramingBuffer, fmt.Errorf("unknown framing %q", s)
	}
}

// Assembler accumulates received fragments until a complete line is
// available. It is not safe for concurrent use.
type Assembler struct {
	framing Framing
	buf     []byte
}

// NewAssembler returns an empty assembler using the given framing
func NewAssembler(framing Framing) *Assembler {
	return &Assembler{framing: framing}
}

// Feed appends chunk to the buffer
func (a *Assembler) Feed(chunk []byte) {
	a.buf = append(a.buf, chunk...)
}

// Next returns the next complete line, including its terminator.
// It returns false and leaves the buffer untouched when no newline has
// been received yet.
func (a *Assembler) Next() ([]byte, bool) {
	i := bytes.IndexByte(a.buf, '\n')
	if i < 0 {
		return nil, false
	}

	if a.framing == FramingLine {
		line := append([]byte(nil), a.buf[:i+1]...)
		a.buf = append(a.buf[:0], a.buf[i+1:]...)
		return line, true
	}

	line := a.buf
	a.buf = nil
	return line, true
}

// Len reports the number of buffered bytes
func (a *Assembler) Len() int {
	return len(a.buf)
}

// Reset drops any partial input
func (a *Assembler) Reset() {
	a.buf = nil
}
