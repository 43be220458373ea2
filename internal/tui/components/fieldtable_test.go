package components

import (
	"testing"
	"time"

	"github.com/evertras/bubble-table/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serial-telemetry/internal/protocol"
	"github.com/allbin/serial-telemetry/internal/tui/models"
)

func TestFieldTableRows(t *testing.T) {
	sinks := models.NewSinkTable()
	sinks.Set(protocol.Current, "-3", time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	rows := NewFieldTable(sinks).Rows()
	require.Len(t, rows, len(protocol.Fields()))

	current := rows[protocol.Current]
	assert.Equal(t, "Current", current.Data[columnKeyField])
	assert.Equal(t, "08:00:00.000", current.Data[columnKeyUpdated])
	cell, ok := current.Data[columnKeyValue].(table.StyledCell)
	require.True(t, ok)
	assert.Equal(t, "-3", cell.Data)

	assert.Equal(t, "-", rows[protocol.Power].Data[columnKeyUpdated])
}

func TestFieldTableView(t *testing.T) {
	ft := NewFieldTable(models.NewSinkTable())
	ft.SetWidth(60)

	view := ft.View()
	for _, f := range protocol.Fields() {
		assert.Contains(t, view, f.String())
	}
}

func TestStatusBarView(t *testing.T) {
	sb := NewStatusBar("/dev/ttyUSB0", "9600 8E2", "termios")
	sb.SetWidth(120)
	sb.SetConnected()
	sb.SetPending(5)

	view := sb.View(models.InputModeNormal, SendingModeASCII, true, "12:00:00")
	assert.Contains(t, view, "NORMAL")
	assert.Contains(t, view, "/dev/ttyUSB0")
	assert.Contains(t, view, "9600 8E2")
	assert.Contains(t, view, "5B")

	sb.SetDisconnected("device lost")
	assert.Equal(t, "device lost", sb.Status())
	sb.SetDisconnected("")
	assert.Equal(t, "Disconnected", sb.Status())
}
