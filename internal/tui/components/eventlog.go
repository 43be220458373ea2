package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogEntries bounds the scrollback of the event log
const maxLogEntries = 1000

// EventLog is a scrolling view of transmitted data, decoded fields and
// session notices
type EventLog struct {
	viewport  viewport.Model
	formatter *DataFormatter
	entries   []LogEntry
}

func NewEventLog(width, height int) *EventLog {
	return &EventLog{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(false, true),
	}
}

func (l *EventLog) SetSize(width, height int) {
	l.viewport.Width = width
	l.viewport.Height = height
	l.refresh()
}

// Add appends an entry and scrolls to it
func (l *EventLog) Add(e LogEntry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[len(l.entries)-maxLogEntries:]
	}
	l.refresh()
}

// MarkPendingTX settles every pending TX entry with status and reports
// how many entries changed
func (l *EventLog) MarkPendingTX(status TXStatus) int {
	changed := 0
	for i := range l.entries {
		if l.entries[i].Kind == EntryTX && l.entries[i].Status == TXPending {
			l.entries[i].Status = status
			changed++
		}
	}
	if changed > 0 {
		l.refresh()
	}
	return changed
}

func (l *EventLog) Entries() []LogEntry {
	return l.entries
}

func (l *EventLog) ToggleHex() {
	l.formatter.ToggleHex()
	l.refresh()
}

func (l *EventLog) ToggleASCII() {
	l.formatter.ToggleASCII()
	l.refresh()
}

func (l *EventLog) GetDisplayMode() DisplayMode {
	return l.formatter.GetDisplayMode()
}

func (l *EventLog) refresh() {
	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = l.formatter.FormatEntry(e)
	}
	l.viewport.SetContent(strings.Join(lines, "\n"))
	l.viewport.GotoBottom()
}

// Update forwards scrolling messages to the viewport. Key messages are
// left to the caller so they don't collide with dashboard bindings.
func (l *EventLog) Update(msg tea.Msg) tea.Cmd {
	switch msg.(type) {
	case tea.MouseMsg:
		var cmd tea.Cmd
		l.viewport, cmd = l.viewport.Update(msg)
		return cmd
	default:
		return nil
	}
}

func (l *EventLog) ScrollUp() {
	l.viewport.LineUp(1)
}

func (l *EventLog) ScrollDown() {
	l.viewport.LineDown(1)
}

func (l *EventLog) View() string {
	return l.viewport.View()
}
