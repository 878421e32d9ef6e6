package metrics

import "time"

// Metric names a sampled quantity.
type Metric string

const (
	MetricCPU    Metric = "cpu"
	MetricMemory Metric = "memory"
)

// PeakEvent reports a new session maximum.
type PeakEvent struct {
	Metric    Metric
	Value     float64
	Timestamp time.Time
}

// SessionStats accumulates session-wide aggregates. It is owned by a single
// sampler goroutine and only ever grows.
type SessionStats struct {
	StartedAt time.Time

	PeakCPU   float64
	PeakCPUAt time.Time

	PeakMemoryKB int64
	PeakMemoryAt time.Time

	Restarts int

	CPUSamples    int
	MemorySamples int
	SkippedTicks  int
}

// NewSessionStats starts a session at the given time.
func NewSessionStats(start time.Time) *SessionStats {
	return &SessionStats{StartedAt: start}
}

// RecordCPU folds a CPU sample into the running maximum. A PeakEvent is
// returned only when the sample strictly exceeds the previous peak.
func (s *SessionStats) RecordCPU(sample CPUSample) *PeakEvent {
	s.CPUSamples++
	if sample.ProcessPercent <= s.PeakCPU {
		return nil
	}
	s.PeakCPU = sample.ProcessPercent
	s.PeakCPUAt = sample.Timestamp
	return &PeakEvent{Metric: MetricCPU, Value: sample.ProcessPercent, Timestamp: sample.Timestamp}
}

// RecordMemory folds a memory reading into the running PSS maximum.
func (s *SessionStats) RecordMemory(snap MemorySnapshot) *PeakEvent {
	s.MemorySamples++
	if snap.TotalPSSKB <= s.PeakMemoryKB {
		return nil
	}
	s.PeakMemoryKB = snap.TotalPSSKB
	s.PeakMemoryAt = snap.Timestamp
	return &PeakEvent{Metric: MetricMemory, Value: float64(snap.TotalPSSKB), Timestamp: snap.Timestamp}
}

// RecordRestart counts one observed process restart.
func (s *SessionStats) RecordRestart() {
	s.Restarts++
}

// RecordSkip counts a tick that produced no CPU value.
func (s *SessionStats) RecordSkip() {
	s.SkippedTicks++
}

// Snapshot returns a copy safe to hand to another goroutine.
func (s *SessionStats) Snapshot() SessionStats {
	return *s
}
