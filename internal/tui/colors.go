package tui

import (
	"github.com/charmbracelet/lipgloss"

	"smartpick.dev/smartpick/internal/engine"
)

var (
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// ColorRed colors text red
func ColorRed(text string) string {
	return redStyle.Render(text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return greenStyle.Render(text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return yellowStyle.Render(text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return cyanStyle.Render(text)
}

// ColorDim renders secondary text
func ColorDim(text string) string {
	return dimStyle.Render(text)
}

// Bold renders text in bold
func Bold(text string) string {
	return boldStyle.Render(text)
}

// StatusIcon returns the marker shown next to a commit in a given status
func StatusIcon(status engine.Status) string {
	switch status {
	case engine.StatusApplied:
		return ColorGreen("✓")
	case engine.StatusSkipped:
		return ColorYellow("↷")
	case engine.StatusConflicted:
		return ColorRed("!")
	case engine.StatusFailed:
		return ColorRed("✗")
	default:
		return ColorDim("○")
	}
}

// ColorStatus renders a status name in its color
func ColorStatus(status engine.Status) string {
	switch status {
	case engine.StatusApplied:
		return ColorGreen(string(status))
	case engine.StatusSkipped:
		return ColorYellow(string(status))
	case engine.StatusConflicted, engine.StatusFailed:
		return ColorRed(string(status))
	default:
		return ColorDim(string(status))
	}
}
