package sampler

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/parsers"
)

// State is where the identity tracker is in a process's lifecycle.
type State int

const (
	StateUnknown State = iota
	StateTracking
	// StateRestarted lasts exactly one Resolve, then collapses to StateTracking.
	StateRestarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateTracking:
		return "tracking"
	case StateRestarted:
		return "restarted"
	case StateStopped:
		return "stopped"
	}
	return "invalid"
}

// OutcomeKind is the result of one lookup.
type OutcomeKind int

const (
	Found OutcomeKind = iota
	NotRunning
	LookupFailed
)

// Outcome is what Resolve learned this tick.
type Outcome struct {
	Kind     OutcomeKind
	Identity metrics.ProcessIdentity
	// Restarted is set on the tick the tracker enters StateRestarted.
	Restarted bool
	// Previous is the identity that was replaced, when Restarted is set.
	Previous metrics.ProcessIdentity
}

// Tracker follows the running instance of one package across ticks.
// It is owned by the sampler goroutine.
type Tracker struct {
	pkg   string
	exec  bridge.Executor
	log   logger.Logger
	state State
	// current is the last identity seen running. It survives StateStopped so
	// a reappearance can be compared against it.
	current metrics.ProcessIdentity
}

// NewTracker creates a tracker in StateUnknown.
func NewTracker(pkg string, exec bridge.Executor, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.Noop()
	}
	return &Tracker{pkg: pkg, exec: exec, log: log}
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	return t.state
}

// Current returns the last identity seen running.
func (t *Tracker) Current() metrics.ProcessIdentity {
	return t.current
}

// Resolve looks the package up and advances the state machine. The returned
// error is the bridge error behind a LookupFailed outcome, or the context's
// error; callers use it to count connection failures.
func (t *Tracker) Resolve(ctx context.Context) (Outcome, error) {
	if t.state == StateRestarted {
		t.setState(StateTracking)
	}

	pid, err := t.lookupPID(ctx)
	switch {
	case stderrors.Is(err, parsers.ErrProcessNotFound):
		if t.state == StateTracking {
			t.setState(StateStopped)
		}
		return Outcome{Kind: NotRunning}, nil
	case err != nil:
		return Outcome{Kind: LookupFailed}, err
	}

	start, err := t.lookupStart(ctx, pid)
	if err != nil {
		return Outcome{Kind: LookupFailed}, err
	}

	id := metrics.ProcessIdentity{Package: t.pkg, PID: pid, StartTicks: start}
	out := Outcome{Kind: Found, Identity: id}

	switch t.state {
	case StateUnknown:
		t.setState(StateTracking)
	case StateTracking, StateStopped:
		// Comparing against the last tracked identity in StateStopped means
		// a reappearance under a different pid counts as a restart, while a
		// lookup blip that returns the same process does not.
		if !t.current.Same(id) {
			out.Restarted = true
			out.Previous = t.current
			t.setState(StateRestarted)
			t.log.Info("%s restarted: pid %d -> %d", t.pkg, t.current.PID, id.PID)
		} else {
			t.setState(StateTracking)
		}
	}

	t.current = id
	return out, nil
}

// lookupPID returns parsers.ErrProcessNotFound when nothing is running.
func (t *Tracker) lookupPID(ctx context.Context) (int, error) {
	out, err := t.exec.Execute(ctx, PIDCommand(t.pkg))
	if err != nil {
		// pidof exits 1 with no output when nothing matches.
		var bErr *bridge.Error
		if stderrors.As(err, &bErr) && bErr.Kind == bridge.NonZeroExit && strings.TrimSpace(bErr.Stdout) == "" && bErr.ExitCode == 1 {
			return 0, parsers.ErrProcessNotFound
		}
		return 0, err
	}
	return parsers.ParsePIDOf(out)
}

// lookupStart returns 0 when the start time is unavailable, leaving pid
// equality to decide identity. Only a connection failure is an error.
func (t *Tracker) lookupStart(ctx context.Context, pid int) (int64, error) {
	out, err := t.exec.Execute(ctx, StatCommand(pid))
	if err != nil {
		if bridge.IsConnectionFailure(err) || ctx.Err() != nil {
			return 0, err
		}
		t.log.Debug("no start time for pid %d: %v", pid, err)
		return 0, nil
	}
	start, err := parsers.ParseStartTicks(out, pid)
	if err != nil {
		t.log.Debug("no start time for pid %d: %v", pid, err)
		return 0, nil
	}
	return start, nil
}

func (t *Tracker) setState(s State) {
	if s != t.state {
		t.log.Debug("%s: %s -> %s", t.pkg, t.state, s)
		t.state = s
	}
}
