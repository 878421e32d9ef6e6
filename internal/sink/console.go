package sink

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/sampler"
	"github.com/rileyhilliard/xperf/internal/ui"
)

// ConsoleOptions controls how much the console prints.
type ConsoleOptions struct {
	// Verbose adds per-category memory lines and skipped-tick notices.
	Verbose bool
	// TopThreads prints the N busiest threads under each CPU line. Zero disables it.
	TopThreads int
}

// Console prints one colored line per event.
type Console struct {
	w    io.Writer
	opts ConsoleOptions
}

func NewConsole(w io.Writer, opts ConsoleOptions) *Console {
	return &Console{w: w, opts: opts}
}

func (c *Console) Emit(ev sampler.Event) {
	switch e := ev.(type) {
	case sampler.CPUTick:
		c.cpu(e)
	case sampler.MemoryTick:
		c.memory(e)
	case sampler.Peak:
		c.printf("%s %s %s\n", stamp(e.Timestamp),
			ui.ErrorStyle().Render(ui.SymbolPeak+" New "+peakLabel(e.Metric)+" peak:"),
			ui.ErrorStyle().Render(peakValue(e.PeakEvent)))
	case sampler.Restart:
		if peaks := currentPeaks(e.Before); peaks != "" {
			c.printf("%s\n\n", peaks)
		} else {
			c.printf("\n")
		}
		c.printf("%s %s New PID: %s (previous: %s), start time: %d\n",
			stamp(e.At),
			ui.WarningStyle().Render(ui.SymbolRestart+" Process restarted!"),
			ui.WarningStyle().Render(fmt.Sprint(e.Current.PID)),
			ui.ErrorStyle().Render(fmt.Sprint(e.Previous.PID)),
			e.Current.StartTicks)
	case sampler.ProcessMissing:
		c.printf("%s %s %s\n", stamp(e.At), ui.ErrorStyle().Render("Process not found:"), ui.InfoStyle().Render(e.Package))
	case sampler.ConnectionLost:
		c.printf("\n%s\n", ui.ErrorStyle().Render(fmt.Sprintf("%s Connection lost after %d failed attempts. Stopping...", ui.SymbolFail, e.Failures)))
		if e.Err != nil {
			c.printf("  %s\n", ui.MutedStyle().Render(e.Err.Error()))
		}
	case sampler.TickSkipped:
		if c.opts.Verbose {
			line := fmt.Sprintf("%s %s tick skipped: %s", ui.SymbolWarning, e.Metric, e.Reason)
			if e.Err != nil {
				line += " (" + e.Err.Error() + ")"
			}
			c.printf("%s %s\n", stamp(e.At), ui.WarningStyle().Render(line))
		}
	}
}

func (c *Console) Flush() error { return nil }

func (c *Console) cpu(e sampler.CPUTick) {
	s := e.Sample
	c.printf("%s CPU %s  system %s  idle %s  threads %d\n",
		stamp(s.Timestamp),
		ui.InfoStyle().Render(ui.FormatPercent(s.ProcessPercent)),
		ui.FormatPercent(s.SystemPercent),
		ui.FormatPercent(s.IdlePercent),
		s.ThreadCount)

	if c.opts.TopThreads <= 0 {
		return
	}
	if len(s.Threads) == 0 {
		if e.Partial != "" {
			c.printf("  %s\n", ui.MutedStyle().Render("thread breakdown unavailable: "+e.Partial))
		}
		return
	}

	c.printf("  Top CPU threads:\n")
	n := min(c.opts.TopThreads, len(s.Threads))
	for i, th := range s.Threads[:n] {
		c.printf("    %d: %s (TID: %s) - %s\n", i+1,
			ui.InfoStyle().Render(th.Name),
			ui.WarningStyle().Render(fmt.Sprint(th.TID)),
			ui.FormatPercent(th.Percent))
	}
	if rest := len(s.Threads) - n; rest > 0 {
		c.printf("    %s\n", ui.MutedStyle().Render(fmt.Sprintf("... and %d more threads", rest)))
	}
}

func (c *Console) memory(e sampler.MemoryTick) {
	s := e.Snapshot
	c.printf("%s PSS %s (%s)\n",
		stamp(s.Timestamp),
		ui.InfoStyle().Render(fmt.Sprintf("%d KB", s.TotalPSSKB)),
		ui.FormatKB(s.TotalPSSKB))

	if !c.opts.Verbose {
		return
	}
	for _, name := range sortedCategories(s.Breakdown) {
		c.printf("    %-14s %8d KB\n", name+":", s.Breakdown[name])
	}
	if s.Partial {
		c.printf("    %s\n", ui.MutedStyle().Render(s.PartialReason))
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format, args...)
}

func stamp(t time.Time) string {
	return ui.MutedStyle().Render("[" + t.Format(time.TimeOnly) + "]")
}

func peakLabel(m metrics.Metric) string {
	if m == metrics.MetricMemory {
		return "memory"
	}
	return "CPU"
}

func peakValue(p metrics.PeakEvent) string {
	if p.Metric == metrics.MetricMemory {
		return fmt.Sprintf("%d KB", int64(p.Value))
	}
	return ui.FormatPercent(p.Value)
}

// currentPeaks renders the peaks reached so far, or "" before any sample.
func currentPeaks(stats metrics.SessionStats) string {
	var lines []string
	if stats.CPUSamples > 0 {
		lines = append(lines, fmt.Sprintf("Peak CPU: %s at %s",
			ui.ErrorStyle().Render(ui.FormatPercent(stats.PeakCPU)),
			stats.PeakCPUAt.Format(time.TimeOnly)))
	}
	if stats.MemorySamples > 0 {
		lines = append(lines, fmt.Sprintf("Peak memory: %s at %s",
			ui.ErrorStyle().Render(fmt.Sprintf("%d KB", stats.PeakMemoryKB)),
			stats.PeakMemoryAt.Format(time.TimeOnly)))
	}
	return strings.Join(lines, "\n")
}

func sortedCategories(breakdown map[string]int64) []string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
