// Package metrics holds the sampling data model and the arithmetic done on it:
// CPU deltas between successive snapshots, session peaks, and short in-memory
// series for live views and end-of-session exports.
package metrics

import "time"

// DefaultClockTicks is USER_HZ on Android and nearly every Linux build.
const DefaultClockTicks = 100

// ThreadTicks is the cumulative CPU time of a single thread.
type ThreadTicks struct {
	TID   int
	Name  string
	Ticks int64
}

// RawSnapshot holds the raw counters read for one tick.
type RawSnapshot struct {
	Timestamp time.Time
	PID       int

	// StartTicks is the process start time in clock ticks since boot.
	// Zero when the stat line was too short to carry it.
	StartTicks int64

	// ProcessTicks is utime+stime of the process.
	ProcessTicks int64

	// SystemTicks is the sum of every column of the aggregate cpu line.
	SystemTicks int64

	// IdleTicks is idle+iowait from the aggregate cpu line.
	IdleTicks int64

	Cores       int
	ThreadCount int

	// Threads is only populated when the per-thread section was requested and parsed.
	Threads []ThreadTicks

	// Partial is set when an optional section failed to parse and was dropped.
	Partial       bool
	PartialReason string
}

// MemorySnapshot holds one PSS reading.
type MemorySnapshot struct {
	Timestamp  time.Time
	PID        int
	TotalPSSKB int64
	// Breakdown maps category name ("Native Heap", "Graphics", ...) to KB.
	Breakdown map[string]int64

	Partial       bool
	PartialReason string
}

// ProcessIdentity identifies one running instance of the monitored package.
type ProcessIdentity struct {
	Package string
	PID     int
	// StartTicks is zero when the device did not report a start time.
	StartTicks int64
}

// Same reports whether two identities refer to the same process instance.
// Start times are only compared when both sides have one.
func (p ProcessIdentity) Same(other ProcessIdentity) bool {
	if p.PID != other.PID {
		return false
	}
	if p.StartTicks != 0 && other.StartTicks != 0 {
		return p.StartTicks == other.StartTicks
	}
	return true
}

// Identity returns the identity a snapshot was taken from.
func (s *RawSnapshot) Identity() ProcessIdentity {
	return ProcessIdentity{PID: s.PID, StartTicks: s.StartTicks}
}

// ThreadPercent is a thread's CPU usage over one tick.
type ThreadPercent struct {
	TID     int
	Name    string
	Percent float64
}

// CPUSample is derived from two adjacent snapshots of the same process.
type CPUSample struct {
	Timestamp      time.Time
	PID            int
	ProcessPercent float64
	SystemPercent  float64
	IdlePercent    float64
	ThreadCount    int
	Elapsed        time.Duration
	// Threads is sorted by Percent, busiest first.
	Threads []ThreadPercent
}
