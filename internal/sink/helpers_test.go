package sink

import (
	"errors"
	"time"

	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/sampler"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func cpuTick(at time.Duration, percent float64, threads ...metrics.ThreadPercent) sampler.CPUTick {
	return sampler.CPUTick{
		Package: "com.example.app",
		Sample: metrics.CPUSample{
			Timestamp:      t0.Add(at),
			PID:            25786,
			ProcessPercent: percent,
			SystemPercent:  4.9,
			IdlePercent:    80,
			ThreadCount:    42,
			Elapsed:        time.Second,
			Threads:        threads,
		},
	}
}

func memTick(at time.Duration, kb int64) sampler.MemoryTick {
	return sampler.MemoryTick{
		Package: "com.example.app",
		Snapshot: metrics.MemorySnapshot{
			Timestamp:  t0.Add(at),
			PID:        25786,
			TotalPSSKB: kb,
			Breakdown:  map[string]int64{"Native Heap": 12300, "Java Heap": 5432, "Graphics": 8000},
		},
	}
}

func restartEvent(at time.Duration) sampler.Restart {
	return sampler.Restart{
		At:       t0.Add(at),
		Package:  "com.example.app",
		Previous: metrics.ProcessIdentity{PID: 25786, StartTicks: 884211},
		Current:  metrics.ProcessIdentity{PID: 30010, StartTicks: 990000},
		Before: metrics.SessionStats{
			StartedAt:     t0,
			PeakCPU:       49,
			PeakCPUAt:     t0.Add(time.Second),
			PeakMemoryKB:  98765,
			PeakMemoryAt:  t0.Add(2 * time.Second),
			CPUSamples:    3,
			MemorySamples: 3,
		},
	}
}

var errUnreachable = errors.New("device offline")

type countingSink struct {
	events  []sampler.Event
	flushes int
	err     error
}

func (c *countingSink) Emit(ev sampler.Event) { c.events = append(c.events, ev) }
func (c *countingSink) Flush() error {
	c.flushes++
	return c.err
}
