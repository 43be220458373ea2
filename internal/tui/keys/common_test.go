package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDashboardKeysMatch(t *testing.T) {
	k := NewDashboardKeys()

	assert.True(t, key.Matches(runeKey('o'), k.Connect))
	assert.True(t, key.Matches(runeKey('d'), k.Disconnect))
	assert.True(t, key.Matches(runeKey('c'), k.Clear))
	assert.True(t, key.Matches(runeKey('q'), k.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, k.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, k.Send))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, k.ToggleSendMode))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, k.Escape))

	// history navigation must not swallow typed letters
	assert.False(t, key.Matches(runeKey('k'), k.HistoryUp))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyUp}, k.HistoryUp))
}

func TestDashboardHelpCoversBindings(t *testing.T) {
	k := NewDashboardKeys()

	var n int
	for _, col := range k.FullHelp() {
		for _, b := range col {
			assert.NotEmpty(t, b.Help().Key)
			n++
		}
	}
	assert.Equal(t, 15, n)
	assert.Len(t, k.ShortHelp(), 6)
}
