package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpEntry struct{ trigger, text string }

var (
	keyHelp = []helpEntry{
		{"Enter", "Send message"},
		{"Alt+Enter", "New line"},
		{"Esc", "Stop the reply"},
		{"Alt+Y", "Copy last code"},
		{"PgUp/PgDn", "Scroll"},
		{"Alt+H", "Toggle help"},
		{"Alt+Q", "Quit"},
	}
	commandHelp = []helpEntry{
		{"/tools [query]", "List or search tools"},
		{"/servers", "Configured servers"},
		{"/server NAME", "Switch tool server"},
		{"/model NAME", "Switch model"},
		{"/provider TYPE [M]", "Switch provider"},
		{"/clear", "Start over"},
	}
)

// helpColumn lays entries out under heading with the triggers padded to pad.
func helpColumn(heading string, entries []helpEntry, pad int) string {
	lines := []string{lipgloss.NewStyle().Foreground(accentColor).Render("## " + heading)}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• %-*s %s", pad, e.trigger, e.text))
	}
	return strings.Join(lines, "\n")
}

func renderHelp(width, height int) string {
	col := lipgloss.NewStyle().Width(46).PaddingLeft(4)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		col.Render(helpColumn("Keys", keyHelp, 13)),
		col.Render(helpColumn("Commands", commandHelp, 20)),
	)

	content := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Bold(true).Foreground(successColor).Render("mcpchat - Keys and Commands"),
		"",
		body,
		"",
		DimStyle.Render("Press Alt+H or Esc to close this help"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
