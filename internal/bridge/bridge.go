// Package bridge runs shell commands on the monitored device. The device is
// reachable through adb or SSH; both are hidden behind Executor, and both
// report failures as *Error so callers can tell a dead link from a command
// that merely failed.
package bridge

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Executor runs one shell command on the device and returns its stdout.
type Executor interface {
	Execute(ctx context.Context, cmd string) (string, error)
}

// Kind classifies an executor failure.
type Kind int

const (
	// Unreachable means the device or the transport is gone.
	Unreachable Kind = iota + 1
	// NonZeroExit means the command ran and failed.
	NonZeroExit
	// Timeout means no response arrived within the deadline.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case NonZeroExit:
		return "non-zero exit"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Executor for failed commands.
type Error struct {
	Kind     Kind
	Command  string
	ExitCode int
	// Stdout is kept for NonZeroExit; some tools print useful text and still fail.
	Stdout string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %q", e.Kind, e.Command)
	if e.Kind == NonZeroExit {
		fmt.Fprintf(&b, " exited %d", e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of an executor error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var bErr *Error
	if stderrors.As(err, &bErr) {
		return bErr.Kind, true
	}
	return 0, false
}

// IsConnectionFailure reports whether err means the link itself failed.
// These count toward the connection-lost threshold; a non-zero exit does not.
func IsConnectionFailure(err error) bool {
	kind, ok := KindOf(err)
	return ok && (kind == Unreachable || kind == Timeout)
}

// withTimeout applies the executor's own deadline, if any, on top of ctx.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// contextFailure decides what a round-trip cut short by a context means.
// Cancellation of the caller's context passes through unchanged so callers
// can tell a shutdown from a device problem; the executor's own deadline
// becomes a Timeout.
// A nil result means the contexts played no part.
func contextFailure(parent, ctx context.Context, cmd string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: Timeout, Command: cmd, Err: ctx.Err()}
	}
	return nil
}
