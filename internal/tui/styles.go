package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, trimmed to the colors the wizard renders with.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorOverlay0)
	countStyle    = lipgloss.NewStyle().Foreground(colorPeach)
	okStyle       = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarning)
	infoStyle     = lipgloss.NewStyle().Foreground(colorInfo)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(colorSurface1)
	boxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
)
