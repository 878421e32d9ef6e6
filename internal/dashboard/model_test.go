package dashboard

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/sampler"
	"github.com/rileyhilliard/xperf/internal/ui"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func cpuMsg(at time.Duration, percent float64) EventMsg {
	return EventMsg{Event: sampler.CPUTick{Sample: metrics.CPUSample{
		Timestamp:      t0.Add(at),
		PID:            25786,
		ProcessPercent: percent,
		SystemPercent:  4.9,
	}}}
}

func memMsg(at time.Duration, kb int64) EventMsg {
	return EventMsg{Event: sampler.MemoryTick{Snapshot: metrics.MemorySnapshot{Timestamp: t0.Add(at), TotalPSSKB: kb}}}
}

func TestNewModel(t *testing.T) {
	m := NewModel("com.example.app", func() {})

	assert.Equal(t, "com.example.app", m.pkg)
	assert.NotNil(t, m.cancelFunc)
	assert.Equal(t, 0, m.cpuHistory.Len())
	assert.Nil(t, m.Init())
}

func TestModel_TracksSamples(t *testing.T) {
	m := send(t, NewModel("pkg", nil),
		cpuMsg(time.Second, 10),
		cpuMsg(2*time.Second, 49),
		memMsg(2*time.Second, 98765),
	)

	require.NotNil(t, m.lastCPU)
	assert.Equal(t, 49.0, m.lastCPU.ProcessPercent)
	assert.Equal(t, []float64{10, 49}, m.cpuHistory.LastValues(10))
	require.NotNil(t, m.lastPSS)
	assert.Equal(t, []float64{98765}, m.pssHistory.LastValues(10))
}

func TestModel_PeaksAndRestarts(t *testing.T) {
	m := send(t, NewModel("pkg", nil),
		EventMsg{Event: sampler.Peak{PeakEvent: metrics.PeakEvent{Metric: metrics.MetricCPU, Value: 49, Timestamp: t0}}},
		EventMsg{Event: sampler.Peak{PeakEvent: metrics.PeakEvent{Metric: metrics.MetricMemory, Value: 98765, Timestamp: t0}}},
		EventMsg{Event: sampler.ProcessMissing{At: t0, Package: "pkg"}},
		EventMsg{Event: sampler.Restart{
			At:       t0.Add(5 * time.Second),
			Previous: metrics.ProcessIdentity{PID: 25786},
			Current:  metrics.ProcessIdentity{PID: 30010},
		}},
	)

	require.NotNil(t, m.peakCPU)
	assert.Equal(t, 49.0, m.peakCPU.Value)
	require.NotNil(t, m.peakMemory)
	assert.Equal(t, 98765.0, m.peakMemory.Value)
	assert.Equal(t, 1, m.restarts)
	assert.Equal(t, "pid 25786 -> 30010 at 10:00:05", m.lastRestart)
	assert.False(t, m.missing, "restart clears the missing flag")
}

func TestModel_MissingAndSkipped(t *testing.T) {
	m := send(t, NewModel("pkg", nil),
		EventMsg{Event: sampler.ProcessMissing{At: t0, Package: "pkg"}},
		EventMsg{Event: sampler.TickSkipped{At: t0, Metric: metrics.MetricCPU, Reason: sampler.SkipInsufficientHistory}},
	)

	assert.True(t, m.missing)
	assert.Equal(t, "cpu insufficient-history at 10:00:00", m.lastSkip)

	ui.DisableColors()
	assert.Contains(t, m.View(), "process not running")
}

func TestModel_QuitKeysCancelSession(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		t.Run(k.String(), func(t *testing.T) {
			cancelled := false
			m := NewModel("pkg", func() { cancelled = true })

			next, cmd := m.Update(k)
			m = next.(Model)

			assert.True(t, cancelled)
			assert.True(t, m.quitting)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
			assert.Empty(t, m.View())
		})
	}
}

func TestModel_OtherKeysIgnored(t *testing.T) {
	cancelled := false
	m := send(t, NewModel("pkg", func() { cancelled = true }), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, cancelled)
	assert.False(t, m.quitting)
}

func TestModel_SessionDone(t *testing.T) {
	ui.DisableColors()
	m := send(t, NewModel("pkg", nil),
		EventMsg{Event: sampler.ConnectionLost{At: t0, Failures: 3}},
		SessionDoneMsg{Status: sampler.ExitConnectionLost, Err: errors.New("adb offline")},
	)

	assert.True(t, m.done)
	view := m.View()
	assert.Contains(t, view, "session connection lost: adb offline")
	assert.Contains(t, view, "connection lost after 3 failures")
}

func TestModel_View(t *testing.T) {
	ui.DisableColors()
	m := send(t, NewModel("com.example.app", nil),
		tea.WindowSizeMsg{Width: 100, Height: 30},
		cpuMsg(time.Second, 10),
		cpuMsg(2*time.Second, 49),
		memMsg(2*time.Second, 98765),
		EventMsg{Event: sampler.Peak{PeakEvent: metrics.PeakEvent{Metric: metrics.MetricCPU, Value: 49, Timestamp: t0.Add(2 * time.Second)}}},
	)

	view := m.View()
	assert.Contains(t, view, "xperf • com.example.app")
	assert.Contains(t, view, "49.0% sys 4.9%")
	assert.Contains(t, view, "96.45 MB")
	assert.Contains(t, view, "cpu 49.0% at 10:00:02")
	assert.Contains(t, view, "q stop and exit")
	assert.Equal(t, 72, m.sparklineWidth())
}

func TestModel_ViewBeforeSamples(t *testing.T) {
	ui.DisableColors()
	view := NewModel("pkg", nil).View()
	assert.Contains(t, view, "none yet")
	assert.Contains(t, view, "Restart")
}
