package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

var (
	// Color palette
	colorPrimary = lipgloss.Color("#00BFFF") // Deep sky blue
	colorDanger  = lipgloss.Color("#FF6B6B") // Red for warnings
	colorWarning = lipgloss.Color("#FFD93D") // Yellow for advisories
	colorSuccess = lipgloss.Color("#6BCF7F") // Green for diveable
	colorMuted   = lipgloss.Color("#6C757D") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 0)

	alertStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	advisoryStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	diveableStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	filterStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	gradeStyles = map[domain.Grade]lipgloss.Style{
		domain.GradeA: lipgloss.NewStyle().Foreground(lipgloss.Color("#1E8449")).Bold(true),
		domain.GradeB: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		domain.GradeC: lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		domain.GradeD: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true),
		domain.GradeF: lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
	}
)

// gradeStyle returns the display style for a letter grade.
func gradeStyle(g domain.Grade) lipgloss.Style {
	if s, ok := gradeStyles[g]; ok {
		return s
	}
	return mutedStyle
}
