package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

// StatusStyle returns the style used to render a queue item status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "finished":
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	case "skipped":
		return lipgloss.NewStyle().Foreground(ColorWarn)
	case "failed":
		return lipgloss.NewStyle().Foreground(ColorError)
	case "active":
		return lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorDim)
	}
}
