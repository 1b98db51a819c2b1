package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alfredjeanlab/litgraph/internal/explorer"
)

// ANSI256 colors for plain CLI output.
var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("74"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(mutedStyle, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(commandStyle, s) }

// RenderError returns s styled as an error.
func RenderError(s string) string { return render(errorStyle, s) }

// GroupStyle returns the style of a node group, taken from the border color
// of the layout palette.
func GroupStyle(layout explorer.Layout, group string) lipgloss.Style {
	c := layout.ColorsFor(group)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Border)).
		Bold(group == explorer.GroupKeyword || group == explorer.GroupAuthor)
}

// RenderGroup returns label in the style of its node group.
func RenderGroup(layout explorer.Layout, group, label string) string {
	return render(GroupStyle(layout, group), label)
}

func render(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
