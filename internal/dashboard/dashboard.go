// Package dashboard provides the live Bubble Tea view of a monitoring session:
// current CPU and PSS values, sparklines of recent history, peaks and restarts.
package dashboard

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rileyhilliard/xperf/internal/sampler"
)

// RunFunc runs a session, emitting to display alongside any other sinks.
type RunFunc func(ctx context.Context, display sampler.Sink) (sampler.ExitStatus, error)

type sessionResult struct {
	status sampler.ExitStatus
	err    error
}

// Run starts the dashboard and the session. The session runs in a background
// goroutine while the TUI owns the main one. When stdout is not a terminal the
// session runs directly against fallback instead.
func Run(ctx context.Context, pkg string, fallback sampler.Sink, run RunFunc) (sampler.ExitStatus, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return run(ctx, fallback)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewModel(pkg, cancel), tea.WithAltScreen())
	bridge := NewBridge(program)

	resultChan := make(chan sessionResult, 1)
	go func() {
		status, err := run(ctx, bridge)
		resultChan <- sessionResult{status: status, err: err}
		bridge.SessionDone(status, err)
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-resultChan
		return sampler.ExitStopped, err
	}

	// Quitting the TUI cancels the session; wait for it to flush.
	cancel()
	r := <-resultChan
	return r.status, r.err
}
