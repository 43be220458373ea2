package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

// EntryKind classifies a line in the event log
type EntryKind int

const (
	EntryRX EntryKind = iota
	EntryTX
	EntryInfo
	EntryError
)

// TXStatus tracks a transmitted payload until the port confirms or
// rejects it
type TXStatus int

const (
	TXPending TXStatus = iota
	TXFlushed
	TXFailed
	TXTimedOut
)

// LogEntry is one line of the event log
type LogEntry struct {
	Time   time.Time
	Kind   EntryKind
	Data   []byte   // raw bytes for RX and TX entries
	Text   string   // decoded field or message text
	Status TXStatus // TX only
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) indicator(e LogEntry) string {
	var color lipgloss.Color
	var text string

	switch e.Kind {
	case EntryTX:
		switch e.Status {
		case TXPending:
			color, text = styles.Yellow, "↗ TX ○"
		case TXFlushed:
			color, text = styles.Green, "↗ TX ✓"
		case TXTimedOut:
			color, text = styles.Peach, "↗ TX ⏱"
		default:
			color, text = styles.Red, "↗ TX ✗"
		}
	case EntryRX:
		color, text = styles.Sky, "↙ RX"
	case EntryError:
		color, text = styles.Red, "✗"
	default:
		color, text = styles.Mauve, "•"
	}

	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}

// FormatEntry renders a log entry as a single styled line
func (df *DataFormatter) FormatEntry(e LogEntry) string {
	var parts []string
	if e.Text != "" {
		parts = append(parts, e.Text)
	}

	if len(e.Data) > 0 && (e.Kind == EntryRX || e.Kind == EntryTX) {
		if df.mode.ShowHex {
			parts = append(parts, fmt.Sprintf("HEX: % X", e.Data))
		}
		if df.mode.ShowASCII {
			parts = append(parts, "ASCII: "+printable(e.Data))
		}
	}

	timestamp := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render(fmt.Sprintf("[%s]", e.Time.Format("15:04:05.000")))

	return fmt.Sprintf("%s %s %s", timestamp, df.indicator(e), strings.Join(parts, "  "))
}

// printable replaces control and non-ASCII bytes with dots
func printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
