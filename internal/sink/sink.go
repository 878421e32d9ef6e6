// Package sink implements the sampler's output consumers: colored console
// lines, an append-only session log, CSV exports and a YAML summary. Every
// sink switches over the closed sampler.Event set.
package sink

import (
	"errors"
	"strings"

	"github.com/rileyhilliard/xperf/internal/sampler"
)

// Multi fans each event out to several sinks in order.
type Multi []sampler.Sink

func (m Multi) Emit(ev sampler.Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Flush flushes every sink and joins their errors.
func (m Multi) Flush() error {
	var errs []error
	for _, s := range m {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MetricsLabel names the enabled metrics the way log files are named:
// "cpu_memory", "cpu", "memory" or "none".
func MetricsLabel(cpu, memory bool) string {
	switch {
	case cpu && memory:
		return "cpu_memory"
	case cpu:
		return "cpu"
	case memory:
		return "memory"
	default:
		return "none"
	}
}

// sanitizeFilename replaces characters that aren't safe for filenames.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
}
