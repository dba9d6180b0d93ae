package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestErrorModal(t *testing.T) {
	m := NewErrorModal("Configuration Error", "bad turn_timeout")

	if out := m.View(); !strings.Contains(out, "bad turn_timeout") {
		t.Errorf("small view lost the message: %q", out)
	}

	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = model.(ErrorModal)
	if got := m.boxWidth(); got != 60 {
		t.Errorf("boxWidth = %d, want 60", got)
	}
	out := m.View()
	for _, want := range []string{"Configuration Error", "bad turn_timeout", "Press Enter to quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	tests := []struct {
		key  tea.KeyMsg
		quit bool
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, true},
		{tea.KeyMsg{Type: tea.KeyEsc}, true},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			_, cmd := m.Update(tt.key)
			if (cmd != nil) != tt.quit {
				t.Errorf("quit = %v, want %v", cmd != nil, tt.quit)
			}
		})
	}
}

func TestRenderHelpListsCommands(t *testing.T) {
	out := renderHelp(120, 40)
	for _, e := range append(keyHelp, commandHelp...) {
		if !strings.Contains(out, e.text) {
			t.Errorf("help missing %q", e.text)
		}
	}
}
