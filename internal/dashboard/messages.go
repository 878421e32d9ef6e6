package dashboard

import "github.com/rileyhilliard/xperf/internal/sampler"

// EventMsg carries one sampler event into the TUI.
type EventMsg struct {
	Event sampler.Event
}

// SessionDoneMsg signals the sampler has returned.
type SessionDoneMsg struct {
	Status sampler.ExitStatus
	Err    error
}
