package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serial-telemetry/internal/tui/models"
	"github.com/allbin/serial-telemetry/internal/tui/styles"
)

type StatusBar struct {
	portPath string
	summary  string // e.g. "115200 8N1"
	driver   string
	status   string
	failed   bool
	pending  int64
	width    int
}

func NewStatusBar(portPath, summary, driver string) *StatusBar {
	return &StatusBar{
		portPath: portPath,
		summary:  summary,
		driver:   driver,
		status:   "Disconnected",
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetPending(pending int64) {
	sb.pending = pending
}

func (sb *StatusBar) SetConnecting() {
	sb.status = "Connecting..."
	sb.failed = false
}

func (sb *StatusBar) SetConnected() {
	sb.status = "Connected"
	sb.failed = false
}

// SetDisconnected records a disconnect, keeping reason when the session
// ended because of an error
func (sb *StatusBar) SetDisconnected(reason string) {
	if reason != "" {
		sb.status = reason
		sb.failed = true
		return
	}
	sb.status = "Disconnected"
	sb.failed = false
}

func (sb *StatusBar) Status() string {
	return sb.status
}

func (sb *StatusBar) indicator(connected bool) string {
	switch {
	case sb.failed:
		return lipgloss.NewStyle().Foreground(styles.StatusColor(styles.StatusError)).Render("✗")
	case connected:
		return lipgloss.NewStyle().Foreground(styles.StatusColor(styles.StatusConnected)).Render("●")
	case sb.status == "Connecting...":
		return lipgloss.NewStyle().Foreground(styles.StatusColor(styles.StatusConnecting)).Render("○")
	default:
		return lipgloss.NewStyle().Foreground(styles.StatusColor(styles.StatusDisconnected)).Render("○")
	}
}

// View renders the bottom bar: mode, port and state on the left,
// connection details and clock on the right
func (sb *StatusBar) View(mode models.InputMode, sendingMode SendingMode, connected bool, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeColor := styles.Blue
	if mode == models.InputModeInsert {
		modeColor = styles.Green
	}
	modePill := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(mode.String())

	port := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	status := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(sb.status)

	left := []string{modePill, port, sb.indicator(connected), status}
	if mode == models.InputModeInsert {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := fmt.Sprintf("⚡ %s %s", sb.summary, sb.driver)
	if sb.pending > 0 {
		details += fmt.Sprintf(" ⧗ %dB", sb.pending)
	}
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Foreground(styles.Subtext0).Padding(0, 1).Render(details),
		divider,
		lipgloss.NewStyle().Foreground(styles.Subtext1).Padding(0, 1).Render(timestamp),
	)

	spacerWidth := width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
