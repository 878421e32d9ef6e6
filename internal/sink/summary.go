package sink

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/metrics"
)

// SummaryFileName is written next to the session log.
const SummaryFileName = "summary.yaml"

// Summary is the structure written to summary.yaml.
type Summary struct {
	Package       string    `yaml:"package"`
	Target        string    `yaml:"target,omitempty"`
	StartedAt     time.Time `yaml:"started_at"`
	EndedAt       time.Time `yaml:"ended_at"`
	Duration      string    `yaml:"duration"`
	ExitStatus    string    `yaml:"exit_status"`
	PeakCPU       *Peak     `yaml:"peak_cpu,omitempty"`
	PeakMemory    *Peak     `yaml:"peak_memory,omitempty"`
	Restarts      int       `yaml:"restarts"`
	CPUSamples    int       `yaml:"cpu_samples"`
	MemorySamples int       `yaml:"memory_samples"`
	SkippedTicks  int       `yaml:"skipped_ticks"`
	LogFile       string    `yaml:"log_file,omitempty"`
	Exports       []string  `yaml:"exports,omitempty"`
}

// Peak is one session maximum.
type Peak struct {
	Value float64   `yaml:"value"`
	Unit  string    `yaml:"unit"`
	At    time.Time `yaml:"at"`
}

// NewSummary builds a summary from the final session stats. Peaks are only
// included for metrics that produced at least one sample.
func NewSummary(pkg, target string, stats metrics.SessionStats, endedAt time.Time, exitStatus string) Summary {
	s := Summary{
		Package:       pkg,
		Target:        target,
		StartedAt:     stats.StartedAt,
		EndedAt:       endedAt,
		Duration:      endedAt.Sub(stats.StartedAt).Truncate(time.Second).String(),
		ExitStatus:    exitStatus,
		Restarts:      stats.Restarts,
		CPUSamples:    stats.CPUSamples,
		MemorySamples: stats.MemorySamples,
		SkippedTicks:  stats.SkippedTicks,
	}
	if stats.CPUSamples > 0 {
		s.PeakCPU = &Peak{Value: stats.PeakCPU, Unit: "%", At: stats.PeakCPUAt}
	}
	if stats.MemorySamples > 0 {
		s.PeakMemory = &Peak{Value: float64(stats.PeakMemoryKB), Unit: "KB", At: stats.PeakMemoryAt}
	}
	return s
}

// WriteSummary writes summary.yaml into dir and returns its path.
func WriteSummary(dir string, s Summary) (string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExec,
			"Can't encode session summary",
			"This is unexpected - check the session data.")
	}

	path := filepath.Join(dir, SummaryFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExec,
			"Can't write summary file "+path,
			"Check your permissions.")
	}
	return path, nil
}

// ReadSummary loads a summary.yaml written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't read summary file "+path,
			"Check the path.")
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse,
			"Can't decode summary file "+path,
			"The file may be truncated or hand-edited.")
	}
	return &s, nil
}
