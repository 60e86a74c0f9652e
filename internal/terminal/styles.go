// Package terminal is the command-line face of the bookshelf: notices as
// colored lines, confirmations as prompts on stdin, shelves as tables.
package terminal

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("#8BC34A")
	errorColor   = lipgloss.Color("#e53935")
	infoColor    = lipgloss.Color("#2196F3")
	mutedColor   = lipgloss.Color("#6b7280")
)

// Styles groups every style the package renders with.
type Styles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Success: lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(infoColor),
		Title: lipgloss.NewStyle().
			Bold(true).
			Underline(true),
		Prompt: lipgloss.NewStyle().
			Foreground(infoColor).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(mutedColor),
		Header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),
		Cell: lipgloss.NewStyle().
			Padding(0, 1),
	}
}
