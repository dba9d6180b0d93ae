package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSI palette indexes, so the terminal theme decides the actual colors.
var (
	dimColor       = lipgloss.Color("7")
	borderColor    = lipgloss.Color("8")
	dangerColor    = lipgloss.Color("9")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	accentColor    = lipgloss.Color("12")
	highlightColor = lipgloss.Color("13")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	UserStyle      = fg(successColor).Bold(true)
	AssistantStyle = fg(accentColor)
	TitleStyle     = lipgloss.NewStyle().Bold(true)

	// DimStyle covers timestamps, notices and hints; StatusStyle the bottom bar.
	DimStyle    = fg(dimColor)
	StatusStyle = fg(dimColor)

	ErrorStyle     = fg(dangerColor)
	WarningStyle   = fg(warningColor)
	HighlightStyle = fg(highlightColor).Bold(true)

	CodeBorderStyle = fg(borderColor)
	CodeLabelStyle  = fg(highlightColor)
)

// FormatFooter pairs up key, description arguments: FormatFooter("Enter",
// "Send", "Esc", "Stop"). Descriptions are bold accent; a trailing odd key
// is dropped.
func FormatFooter(pairs ...string) string {
	desc := fg(accentColor).Bold(true)
	out := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, pairs[i]+" "+desc.Render(pairs[i+1]))
	}
	return strings.Join(out, "  ")
}
