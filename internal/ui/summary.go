package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/xperf/internal/metrics"
)

// SummaryRenderer formats the end-of-session report.
type SummaryRenderer struct {
	titleStyle lipgloss.Style
	peakStyle  lipgloss.Style
	pathStyle  lipgloss.Style
	mutedStyle lipgloss.Style
}

func NewSummaryRenderer() *SummaryRenderer {
	return &SummaryRenderer{
		titleStyle: TitleStyle(),
		peakStyle:  ErrorStyle(),
		pathStyle:  InfoStyle(),
		mutedStyle: MutedStyle(),
	}
}

// RenderSessionSummary is a shortcut for NewSummaryRenderer().Render.
func RenderSessionSummary(pkg string, stats metrics.SessionStats, endedAt time.Time, files []string) string {
	return NewSummaryRenderer().Render(pkg, stats, endedAt, files)
}

// Render lists peaks with their timestamps, the restart count and any files
// written during the session. Metrics that never produced a sample are left out.
func (r *SummaryRenderer) Render(pkg string, stats metrics.SessionStats, endedAt time.Time, files []string) string {
	var sb strings.Builder

	sb.WriteString(r.titleStyle.Render("Session summary: " + pkg))
	sb.WriteString("\n")

	duration := endedAt.Sub(stats.StartedAt).Truncate(time.Second)
	sb.WriteString(r.mutedStyle.Render(fmt.Sprintf("  duration %s", duration)))
	sb.WriteString("\n")

	if stats.CPUSamples > 0 {
		sb.WriteString(fmt.Sprintf("  Peak CPU:    %s at %s\n",
			r.peakStyle.Render(FormatPercent(stats.PeakCPU)),
			stats.PeakCPUAt.Format(time.TimeOnly)))
	}
	if stats.MemorySamples > 0 {
		sb.WriteString(fmt.Sprintf("  Peak memory: %s at %s\n",
			r.peakStyle.Render(fmt.Sprintf("%d KB", stats.PeakMemoryKB)),
			stats.PeakMemoryAt.Format(time.TimeOnly)))
	}
	sb.WriteString(fmt.Sprintf("  Restarts:    %d\n", stats.Restarts))
	if stats.SkippedTicks > 0 {
		sb.WriteString(r.mutedStyle.Render(fmt.Sprintf("  Skipped ticks: %d", stats.SkippedTicks)))
		sb.WriteString("\n")
	}

	for _, f := range files {
		sb.WriteString(fmt.Sprintf("  %s %s\n", SuccessStyle().Render(SymbolSuccess), r.pathStyle.Render(f)))
	}

	return sb.String()
}
