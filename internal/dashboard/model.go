package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/sampler"
	"github.com/rileyhilliard/xperf/internal/ui"
)

// historySize bounds the sparkline history kept by the model.
const historySize = 600

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	pkg        string
	cancelFunc context.CancelFunc
	keys       keyMap
	help       help.Model

	width  int
	height int

	cpuHistory *metrics.Series
	pssHistory *metrics.Series

	lastCPU *metrics.CPUSample
	lastPSS *metrics.MemorySnapshot

	peakCPU    *metrics.PeakEvent
	peakMemory *metrics.PeakEvent

	restarts    int
	lastRestart string
	missing     bool
	lastSkip    string

	done     bool
	status   sampler.ExitStatus
	err      error
	quitting bool
}

func NewModel(pkg string, cancelFunc context.CancelFunc) Model {
	return Model{
		pkg:        pkg,
		cancelFunc: cancelFunc,
		keys:       defaultKeyMap(),
		help:       help.New(),
		cpuHistory: metrics.NewSeries(historySize),
		pssHistory: metrics.NewSeries(historySize),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if m.cancelFunc != nil {
				m.cancelFunc()
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case SessionDoneMsg:
		m.done = true
		m.status = msg.Status
		m.err = msg.Err
		// Stay up so the final numbers remain visible until the user quits.
		return m, nil
	}

	return m, nil
}

func (m *Model) apply(ev sampler.Event) {
	switch e := ev.(type) {
	case sampler.CPUTick:
		s := e.Sample
		m.lastCPU = &s
		m.cpuHistory.Push(s.Timestamp, s.ProcessPercent)
		m.missing = false
	case sampler.MemoryTick:
		s := e.Snapshot
		m.lastPSS = &s
		m.pssHistory.Push(s.Timestamp, float64(s.TotalPSSKB))
		m.missing = false
	case sampler.Peak:
		p := e.PeakEvent
		if p.Metric == metrics.MetricMemory {
			m.peakMemory = &p
		} else {
			m.peakCPU = &p
		}
	case sampler.Restart:
		m.restarts++
		m.lastRestart = fmt.Sprintf("pid %d -> %d at %s", e.Previous.PID, e.Current.PID, e.At.Format(time.TimeOnly))
		m.missing = false
	case sampler.ProcessMissing:
		m.missing = true
	case sampler.TickSkipped:
		m.lastSkip = fmt.Sprintf("%s %s at %s", e.Metric, e.Reason, e.At.Format(time.TimeOnly))
	case sampler.ConnectionLost:
		m.lastSkip = fmt.Sprintf("connection lost after %d failures", e.Failures)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("xperf " + ui.SymbolBullet + " " + m.pkg))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderCPU())
	sb.WriteString("\n")
	sb.WriteString(m.renderMemory())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderPeaks())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderFooter())

	return sb.String()
}

func (m Model) sparklineWidth() int {
	width := m.width
	if width == 0 {
		width = defaultWidth
	}
	return max(width-sparklineGutter, 10)
}

func (m Model) renderCPU() string {
	value := "-"
	line := ""
	if m.lastCPU != nil {
		value = fmt.Sprintf("%s sys %s", ui.FormatPercent(m.lastCPU.ProcessPercent), ui.FormatPercent(m.lastCPU.SystemPercent))
		line = ui.RenderSparkline(m.cpuHistory.LastValues(m.sparklineWidth()), m.sparklineWidth())
	}
	return labelStyle.Render("CPU") + valueStyle.Render(value) + line
}

func (m Model) renderMemory() string {
	value := "-"
	line := ""
	if m.lastPSS != nil {
		value = ui.FormatKB(m.lastPSS.TotalPSSKB)
		line = ui.RenderSparklineColor(m.pssHistory.LastValues(m.sparklineWidth()), m.sparklineWidth(), ui.ColorInfo)
	}
	return labelStyle.Render("PSS") + valueStyle.Render(value) + line
}

func (m Model) renderPeaks() string {
	var parts []string
	if m.peakCPU != nil {
		parts = append(parts, "cpu "+peakStyle.Render(ui.FormatPercent(m.peakCPU.Value))+
			mutedStyle.Render(" at "+m.peakCPU.Timestamp.Format(time.TimeOnly)))
	}
	if m.peakMemory != nil {
		parts = append(parts, "pss "+peakStyle.Render(fmt.Sprintf("%d KB", int64(m.peakMemory.Value)))+
			mutedStyle.Render(" at "+m.peakMemory.Timestamp.Format(time.TimeOnly)))
	}
	if len(parts) == 0 {
		parts = append(parts, mutedStyle.Render("none yet"))
	}
	return labelStyle.Render("Peaks") + strings.Join(parts, mutedStyle.Render(" | "))
}

func (m Model) renderStatus() string {
	var lines []string

	restarts := fmt.Sprintf("%d", m.restarts)
	if m.lastRestart != "" {
		restarts += mutedStyle.Render(" (last " + m.lastRestart + ")")
	}
	lines = append(lines, labelStyle.Render("Restart")+restarts)

	if m.missing {
		lines = append(lines, warningStyle.Render(ui.SymbolWarning+" process not running"))
	}
	if m.lastSkip != "" {
		lines = append(lines, mutedStyle.Render("last gap: "+m.lastSkip))
	}
	if m.done {
		msg := "session " + m.status.String()
		if m.err != nil {
			msg += ": " + m.err.Error()
		}
		style := mutedStyle
		if m.status == sampler.ExitConnectionLost || m.err != nil {
			style = errorStyle
		}
		lines = append(lines, style.Render(msg))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	return m.help.ShortHelpView(m.keys.ShortHelp())
}
