package session

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrShortWrite is returned when the transport accepts fewer bytes than
// were offered
var ErrShortWrite = errors.New("short write")

// Deadline is a re-armable single-shot timer. Arm replaces any pending
// arm; after Disarm no expiry from an earlier arm may be observed.
type Deadline interface {
	Arm(d time.Duration)
	Disarm()
}

// WriteTracker counts bytes accepted by the transport but not yet
// confirmed, and keeps a deadline armed while any are outstanding.
// It is not safe for concurrent use.
type WriteTracker struct {
	deadline Deadline
	timeout  time.Duration
	pending  int64
	batch    int64 // accepted since the counter was last zero
}

// NewWriteTracker returns a tracker arming deadline for timeout per write
func NewWriteTracker(deadline Deadline, timeout time.Duration) *WriteTracker {
	return &WriteTracker{deadline: deadline, timeout: timeout}
}

// Write forwards data to w. A complete write is counted and re-arms the
// deadline. A partial write returns ErrShortWrite and changes nothing.
func (t *WriteTracker) Write(w io.Writer, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	n, err := w.Write(data)
	if n < len(data) {
		if err == nil {
			err = io.ErrShortWrite
		}
		return n, fmt.Errorf("%w: %d of %d bytes: %w", ErrShortWrite, n, len(data), err)
	}

	t.pending += int64(n)
	t.batch += int64(n)
	t.deadline.Arm(t.timeout)
	return n, nil
}

// Confirm records n bytes as sent. It returns the size of the flushed
// batch when the outstanding count drops to zero, and 0 otherwise.
func (t *WriteTracker) Confirm(n int) int64 {
	if t.pending == 0 {
		return 0
	}

	t.pending -= int64(n)
	if t.pending > 0 {
		return 0
	}

	t.pending = 0
	t.deadline.Disarm()
	flushed := t.batch
	t.batch = 0
	return flushed
}

// Elapsed reports whether a deadline expiry is a real timeout
func (t *WriteTracker) Elapsed() bool {
	return t.pending > 0
}

// Pending is the number of accepted but unconfirmed bytes
func (t *WriteTracker) Pending() int64 {
	return t.pending
}

// Reset forgets outstanding bytes and disarms the deadline
func (t *WriteTracker) Reset() {
	t.pending = 0
	t.batch = 0
	t.deadline.Disarm()
}
