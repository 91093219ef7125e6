package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of the terminal UI.
type Styles struct {
	Title   lipgloss.Style
	Help    lipgloss.Style
	OK      lipgloss.Style
	Warning lipgloss.Style
	Bad     lipgloss.Style
	Status  lipgloss.Style
}

// DefaultStyles returns the built-in color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		OK:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		Bad:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Status:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("14")),
	}
}
