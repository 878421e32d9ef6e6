package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/xperf/internal/ui"
)

// Width used before the first WindowSizeMsg arrives.
const defaultWidth = 80

// Columns taken by the label and value in front of each sparkline.
const sparklineGutter = 28

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorSuccess)

	labelStyle = lipgloss.NewStyle().
			Width(8).
			Foreground(ui.ColorMuted)

	valueStyle = lipgloss.NewStyle().
			Width(18).
			Foreground(ui.ColorInfo)

	peakStyle = lipgloss.NewStyle().
			Foreground(ui.ColorError)

	warningStyle = lipgloss.NewStyle().
			Foreground(ui.ColorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ColorError).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)
)
