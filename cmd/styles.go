package cmd

import "github.com/charmbracelet/lipgloss"

// Common styles used across commands
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // Green
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))            // Blue
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(12)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)
