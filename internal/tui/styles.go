package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Background(colorMantle).
			Foreground(colorAccent).
			Bold(true)
	bodyStyle = lipgloss.NewStyle().Foreground(colorText)

	statusStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface0)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError).Background(colorSurface0)
	footerStyle    = lipgloss.NewStyle().Background(colorMantle).Foreground(colorMuted)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	groupStyle    = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	rowStyle      = lipgloss.NewStyle().Foreground(colorText)
	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	matchStyle    = lipgloss.NewStyle().Foreground(colorMatch).Underline(true)
	descStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	shortcutStyle = lipgloss.NewStyle().Foreground(colorBorder)
	hintStyle     = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	keyStyle      = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)
