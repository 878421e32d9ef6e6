package metrics

import (
	"errors"
	"sort"
)

var (
	// ErrInsufficientHistory means there is no earlier snapshot for this process yet.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrIdentityChanged means the two snapshots belong to different process instances.
	ErrIdentityChanged = errors.New("process identity changed between snapshots")

	// ErrNonMonotonicClock means the current snapshot is not later than the previous one.
	ErrNonMonotonicClock = errors.New("snapshot timestamps are not increasing")

	// ErrIndeterminate means a counter went backwards without an identity change.
	ErrIndeterminate = errors.New("counter reset, sample indeterminate")
)

// DeltaConfig holds the device constants needed to turn ticks into percentages.
type DeltaConfig struct {
	// ClockTicks is USER_HZ. Zero means DefaultClockTicks.
	ClockTicks int
}

// Compute derives a CPUSample from two chronologically adjacent snapshots.
//
// Process percent is not normalized by core count, so a process keeping two
// cores busy reads 200%. System and idle percentages are shares of total
// capacity across all cores. Elapsed time comes from the snapshot timestamps,
// never from the configured interval.
func Compute(prev, cur *RawSnapshot, cfg DeltaConfig) (CPUSample, error) {
	if prev == nil || cur == nil {
		return CPUSample{}, ErrInsufficientHistory
	}
	if !prev.Identity().Same(cur.Identity()) {
		return CPUSample{}, ErrIdentityChanged
	}
	if !cur.Timestamp.After(prev.Timestamp) {
		return CPUSample{}, ErrNonMonotonicClock
	}

	procDelta := cur.ProcessTicks - prev.ProcessTicks
	totalDelta := cur.SystemTicks - prev.SystemTicks
	idleDelta := cur.IdleTicks - prev.IdleTicks
	if procDelta < 0 || totalDelta < 0 || idleDelta < 0 || idleDelta > totalDelta {
		return CPUSample{}, ErrIndeterminate
	}

	hz := float64(cfg.ClockTicks)
	if hz <= 0 {
		hz = DefaultClockTicks
	}
	cores := float64(cur.Cores)
	if cores <= 0 {
		cores = 1
	}

	elapsed := cur.Timestamp.Sub(prev.Timestamp)
	seconds := elapsed.Seconds()

	toPercent := func(ticks int64) float64 {
		return float64(ticks) / hz / seconds * 100
	}

	return CPUSample{
		Timestamp:      cur.Timestamp,
		PID:            cur.PID,
		ProcessPercent: toPercent(procDelta),
		SystemPercent:  toPercent(totalDelta-idleDelta) / cores,
		IdlePercent:    toPercent(idleDelta) / cores,
		ThreadCount:    cur.ThreadCount,
		Elapsed:        elapsed,
		Threads:        threadPercents(prev.Threads, cur.Threads, toPercent),
	}, nil
}

// threadPercents diffs threads present in both snapshots. Threads that were
// born or died during the interval have no baseline and are left out.
func threadPercents(prev, cur []ThreadTicks, toPercent func(int64) float64) []ThreadPercent {
	if len(prev) == 0 || len(cur) == 0 {
		return nil
	}

	before := make(map[int]int64, len(prev))
	for _, t := range prev {
		before[t.TID] = t.Ticks
	}

	var out []ThreadPercent
	for _, t := range cur {
		old, ok := before[t.TID]
		if !ok || t.Ticks < old {
			continue
		}
		out = append(out, ThreadPercent{
			TID:     t.TID,
			Name:    t.Name,
			Percent: toPercent(t.Ticks - old),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percent == out[j].Percent {
			return out[i].TID < out[j].TID
		}
		return out[i].Percent > out[j].Percent
	})
	return out
}
