// Package styles holds the Catppuccin Mocha palette and the lipgloss
// styles shared by the dashboard and the plain CLI output.
package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha colors used by the terminal UI
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Teal   = lipgloss.Color("#94e2d5")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(0, 1)

	// Plain CLI output
	InfoStyle    = lipgloss.NewStyle().Foreground(Mauve).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Red).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(Subtext0)
	ValueStyle   = lipgloss.NewStyle().Foreground(Teal).Bold(true)
)

type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusConnecting
	StatusError
)

// StatusColor returns the indicator color for a connection status
func StatusColor(status StatusType) lipgloss.Color {
	switch status {
	case StatusConnected:
		return Green
	case StatusConnecting:
		return Yellow
	default:
		return Red
	}
}
