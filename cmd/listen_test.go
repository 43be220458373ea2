package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/session"
)

func TestPrintTelemetryRaw(t *testing.T) {
	var out bytes.Buffer
	stops := 0

	lost := printTelemetry(&out, feed(
		session.Connected{Summary: "Connected to /dev/ttyUSB0 : 115200, 8, None, 1, None"},
		session.FieldUpdated{Field: protocol.Current, Value: "-3"},
		session.FieldUpdated{Field: protocol.PowerStep, Value: "12.5"},
	), true, func() { stops++ })

	assert.Empty(t, lost)
	assert.Equal(t, "Current=-3\nPowerStep=12.5\n", out.String())
	assert.Zero(t, stops)
}

func TestPrintTelemetryDeviceLost(t *testing.T) {
	var out bytes.Buffer
	stops := 0

	lost := printTelemetry(&out, feed(
		session.Connected{Summary: "Connected"},
		session.FieldUpdated{Field: protocol.Power, Value: "1"},
		session.CriticalError{Text: "Input/output error"},
		session.Disconnected{},
	), false, func() { stops++ })

	assert.Equal(t, "Input/output error", lost)
	assert.Equal(t, 1, stops)
	assert.Contains(t, out.String(), "Connected")
	assert.Contains(t, out.String(), "Power = ")
	assert.Contains(t, out.String(), "Input/output error")
}
