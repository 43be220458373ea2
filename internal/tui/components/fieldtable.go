package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/serial-telemetry/internal/tui/models"
	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

const (
	columnKeyField   = "field"
	columnKeyValue   = "value"
	columnKeyUpdated = "updated"
)

// FieldTable renders the telemetry sink table as a grid with one row per
// field
type FieldTable struct {
	sinks *models.SinkTable
	width int
}

func NewFieldTable(sinks *models.SinkTable) *FieldTable {
	return &FieldTable{sinks: sinks}
}

func (ft *FieldTable) SetWidth(width int) {
	ft.width = width
}

// Rows returns one row per field in display order
func (ft *FieldTable) Rows() []table.Row {
	entries := ft.sinks.Entries()
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		updated := "-"
		valueStyle := lipgloss.NewStyle().Foreground(styles.Overlay0)
		if !e.Updated.IsZero() {
			updated = e.Updated.Format("15:04:05.000")
			valueStyle = lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyField:   e.Field.String(),
			columnKeyValue:   table.NewStyledCell(e.Value, valueStyle),
			columnKeyUpdated: updated,
		}))
	}
	return rows
}

func (ft *FieldTable) View() string {
	columns := []table.Column{
		table.NewColumn(columnKeyField, "Field", 22),
		table.NewFlexColumn(columnKeyValue, "Value", 1),
		table.NewColumn(columnKeyUpdated, "Updated", 14),
	}

	t := table.New(columns).
		WithRows(ft.Rows()).
		HeaderStyle(lipgloss.NewStyle().Foreground(styles.Mauve).Bold(true)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(styles.Text).BorderForeground(styles.Surface2).Align(lipgloss.Left)).
		BorderRounded()

	// flex columns need a target width to size against
	width := ft.width
	if width <= 0 {
		width = 80
	}

	return t.WithTargetWidth(width).View()
}
