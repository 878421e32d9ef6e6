package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/xperf/internal/sampler"
)

// Bridge is a sampler.Sink that forwards events to the Bubble Tea program via
// program.Send(). This is goroutine-safe.
type Bridge struct {
	program *tea.Program
}

func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

func (b *Bridge) Emit(ev sampler.Event) {
	b.program.Send(EventMsg{Event: ev})
}

func (b *Bridge) Flush() error { return nil }

// SessionDone tells the TUI the sampler has returned.
func (b *Bridge) SessionDone(status sampler.ExitStatus, err error) {
	b.program.Send(SessionDoneMsg{Status: status, Err: err})
}
