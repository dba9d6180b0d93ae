package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// ErrorModal is a standalone program for errors that stop startup, such as an
// unreadable config file. Any of enter, esc or ctrl+c dismisses it.
type ErrorModal struct {
	title, message string
	width, height  int
}

func NewErrorModal(title, message string) ErrorModal {
	return ErrorModal{title: title, message: message}
}

func (m ErrorModal) Init() tea.Cmd { return nil }

func (m ErrorModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if k := msg.String(); k == "enter" || k == "esc" || k == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// boxWidth is 60 columns, shrunk to leave a margin on narrow terminals.
func (m ErrorModal) boxWidth() int {
	return min(60, m.width-10)
}

func (m ErrorModal) View() string {
	if m.width < minRenderWidth || m.height < 10 {
		return ErrorStyle.Render(m.title) + "\n" + m.message
	}
	w := m.boxWidth()

	centered := lipgloss.NewStyle().Width(w).Align(lipgloss.Center)
	ruled := centered.
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor)

	var body []string
	for _, line := range strings.Split(m.message, "\n") {
		body = append(body, runewidth.Wrap(line, w))
	}

	box := lipgloss.JoinVertical(lipgloss.Center,
		centered.Bold(true).Foreground(dangerColor).Render(m.title),
		ruled.Padding(1, 0).Render(strings.Join(body, "\n")),
		ruled.Foreground(dimColor).Render("Press Enter to quit"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
