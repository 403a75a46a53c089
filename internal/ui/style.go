package ui

import "github.com/charmbracelet/lipgloss"

// Color palette shared across the dashboard.
var (
	Cyan   = lipgloss.Color("#00E5FF") // primary highlight
	Yellow = lipgloss.Color("#FFB500") // warnings / estimates
	Green  = lipgloss.Color("#2AFFAA") // positive PnL / success
	Red    = lipgloss.Color("#FF5555") // negative PnL / errors
	Blue   = lipgloss.Color("#3B82F6") // info
	Base01 = lipgloss.Color("#6C7280") // muted text
	Base2  = lipgloss.Color("#ECEFF4") // primary text
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	headerStyle = lipgloss.NewStyle().Foreground(Base01)

	valueStyle = lipgloss.NewStyle().Foreground(Base2)

	successStyle = lipgloss.NewStyle().Foreground(Green)

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(Red)

	warningStyle = lipgloss.NewStyle().Foreground(Yellow)

	infoStyle = lipgloss.NewStyle().Foreground(Blue)

	mutedStyle = lipgloss.NewStyle().Foreground(Base01)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Base01).
			Padding(0, 1)

	busyStyle = lipgloss.NewStyle().Bold(true).Foreground(Yellow)
)

// pnlStyle picks green or red depending on sign.
func pnlStyle(value float64) lipgloss.Style {
	if value >= 0 {
		return successStyle
	}
	return errorStyle
}
