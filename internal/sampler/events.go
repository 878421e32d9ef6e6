package sampler

import (
	"time"

	"github.com/rileyhilliard/xperf/internal/metrics"
)

// Event is something a tick produced for the sinks. The set is closed:
// sinks switch over the concrete types below and nothing else implements it.
type Event interface {
	// Time is when the event was observed.
	Time() time.Time
	isEvent()
}

// Sink consumes events. Emit is called from the sampler goroutine only.
type Sink interface {
	Emit(Event)
	Flush() error
}

// CPUTick carries one computed CPU sample.
type CPUTick struct {
	Package string
	Sample  metrics.CPUSample
	// Partial explains why the per-thread breakdown is missing, if it is.
	Partial string
}

// MemoryTick carries one memory reading.
type MemoryTick struct {
	Package  string
	Snapshot metrics.MemorySnapshot
}

// Restart reports that the monitored package is running as a new process.
type Restart struct {
	At       time.Time
	Package  string
	Previous metrics.ProcessIdentity
	Current  metrics.ProcessIdentity
	// Before is the session state just before the restart was counted.
	Before metrics.SessionStats
}

// Peak reports a new session maximum.
type Peak struct {
	metrics.PeakEvent
	Package string
}

// ConnectionLost ends the session: the bridge failed too many times in a row.
type ConnectionLost struct {
	At       time.Time
	Failures int
	Err      error
}

// ProcessMissing is emitted on every tick the package is not running.
type ProcessMissing struct {
	At      time.Time
	Package string
}

// SkipReason says why a tick produced no value for a metric.
type SkipReason string

const (
	SkipInsufficientHistory SkipReason = "insufficient-history"
	SkipIdentityChanged     SkipReason = "identity-changed"
	SkipIndeterminate       SkipReason = "indeterminate"
	SkipParseError          SkipReason = "parse-error"
	SkipBridgeError         SkipReason = "bridge-error"
	SkipLookupFailed        SkipReason = "lookup-failed"
	SkipProcessGone         SkipReason = "process-gone"
)

// TickSkipped reports a non-fatal gap in one metric.
type TickSkipped struct {
	At     time.Time
	Metric metrics.Metric
	Reason SkipReason
	Err    error
}

func (e CPUTick) Time() time.Time        { return e.Sample.Timestamp }
func (e MemoryTick) Time() time.Time     { return e.Snapshot.Timestamp }
func (e Restart) Time() time.Time        { return e.At }
func (e Peak) Time() time.Time           { return e.Timestamp }
func (e ConnectionLost) Time() time.Time { return e.At }
func (e ProcessMissing) Time() time.Time { return e.At }
func (e TickSkipped) Time() time.Time    { return e.At }

func (CPUTick) isEvent()        {}
func (MemoryTick) isEvent()     {}
func (Restart) isEvent()        {}
func (Peak) isEvent()           {}
func (ConnectionLost) isEvent() {}
func (ProcessMissing) isEvent() {}
func (TickSkipped) isEvent()    {}
