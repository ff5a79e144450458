package tui

import "github.com/charmbracelet/lipgloss"

// Styles for the parts of the browser LS_COLORS doesn't govern.
var (
	rootStyle = lipgloss.NewStyle().
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73F59F")).
			Bold(true)

	collapsedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A9"))
)
