package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arcadeloop/internal/core"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGameKeyActions(t *testing.T) {
	keys := DefaultGameKeyMap()

	tests := []struct {
		key      string
		expected core.Action
	}{
		{"up", core.ActionUp},
		{"w", core.ActionUp},
		{"down", core.ActionDown},
		{"s", core.ActionDown},
		{" ", core.ActionJump},
		{"r", core.ActionRestart},
		{"p", core.ActionNone},
		{"x", core.ActionNone},
	}

	for _, tc := range tests {
		if got := keys.Action(keyMsg(tc.key)); got != tc.expected {
			t.Errorf("Action(%q) = %v, expected %v", tc.key, got, tc.expected)
		}
	}
}

func TestGameControlKeys(t *testing.T) {
	keys := DefaultGameKeyMap()

	tests := []struct {
		key     string
		binding key.Binding
	}{
		{"p", keys.Pause},
		{"q", keys.Quit},
		{"ctrl+c", keys.Quit},
		{"esc", keys.Back},
		{"?", keys.Help},
	}

	for _, tc := range tests {
		if !key.Matches(keyMsg(tc.key), tc.binding) {
			t.Errorf("%q does not match %v", tc.key, tc.binding.Help().Desc)
		}
	}
}

func TestMenuKeys(t *testing.T) {
	keys := DefaultMenuKeyMap()
	if !key.Matches(keyMsg("enter"), keys.Select) || !key.Matches(keyMsg("tab"), keys.Runs) {
		t.Error("enter should select and tab should open run history")
	}
	if !key.Matches(keyMsg("k"), keys.Up) || !key.Matches(keyMsg("j"), keys.Down) {
		t.Error("vim keys should navigate")
	}
}
