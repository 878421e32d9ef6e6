package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyles_RenderText(t *testing.T) {
	for _, style := range []lipgloss.Style{SuccessStyle(), ErrorStyle(), WarningStyle(), InfoStyle(), MutedStyle(), TitleStyle()} {
		assert.Contains(t, style.Render("value"), "value")
	}
}

func TestDisableColors(t *testing.T) {
	ForceColors()
	assert.Contains(t, ErrorStyle().Render("peak"), "\x1b[")

	DisableColors()
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })
	assert.Equal(t, "peak", ErrorStyle().Render("peak"))
}
