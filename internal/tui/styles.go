package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText    lipgloss.Color = "#cdd6f4"
	colorMuted   lipgloss.Color = "#a6adc8"
	colorBorder  lipgloss.Color = "#585b70"
	colorAccent  lipgloss.Color = "#89b4fa"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorWarning lipgloss.Color = "#f9e2af"
	colorError   lipgloss.Color = "#f38ba8"
	colorTabOff  lipgloss.Color = "#7f849c"
	colorMantle  lipgloss.Color = "#181825"
	colorSurface lipgloss.Color = "#313244"
)

var (
	appNameStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	headerStyle  = lipgloss.NewStyle().Background(colorMantle).Foreground(colorText)

	activeTabStyle = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().
				Background(colorMantle).
				Foreground(colorTabOff).
				Padding(0, 1)

	titleStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	tableHeader   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	tableCell     = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	tableSelected = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface).Bold(true).Padding(0, 1)
	tableBorder   = lipgloss.NewStyle().Foreground(colorBorder)

	statusStyles = map[string]lipgloss.Style{
		"info":    lipgloss.NewStyle().Foreground(colorAccent),
		"success": lipgloss.NewStyle().Foreground(colorSuccess),
		"warning": lipgloss.NewStyle().Foreground(colorWarning),
		"error":   lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}
)
