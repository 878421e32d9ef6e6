package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/sampler"
)

// LogFileOptions configures a session log.
type LogFileOptions struct {
	// BaseDir is the log root; "~" is expanded.
	BaseDir string
	Package string
	CPU     bool
	Memory  bool
	// Verbose adds per-thread and per-category detail to each block.
	Verbose bool
	// Now stamps the file name. Defaults to time.Now().
	Now time.Time
}

// LogFile appends one timestamped block per event to
// <base>/<package>/performance_<metrics>_<timestamp>.log.
type LogFile struct {
	dir     string
	path    string
	file    *os.File
	verbose bool
	err     error
}

// NewLogFile creates the package log directory and opens the session log for append.
func NewLogFile(opts LogFileOptions) (*LogFile, error) {
	dir := PackageDir(opts.BaseDir, opts.Package)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create log directory "+dir,
			"Check your permissions for "+opts.BaseDir+", or pass --no-log.")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := fmt.Sprintf("performance_%s_%s.log", MetricsLabel(opts.CPU, opts.Memory), now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open log file "+path,
			"Check your permissions, or pass --no-log.")
	}

	return &LogFile{dir: dir, path: path, file: f, verbose: opts.Verbose}, nil
}

// PackageDir is the directory a package's logs, exports and summary go in:
// <baseDir>/<package>, with a leading "~" in baseDir expanded.
func PackageDir(baseDir, pkg string) string {
	return filepath.Join(config.ExpandTilde(baseDir), sanitizeFilename(pkg))
}

// Path is the log file path.
func (l *LogFile) Path() string { return l.path }

// Dir is the per-package directory the log lives in.
func (l *LogFile) Dir() string { return l.dir }

func (l *LogFile) Emit(ev sampler.Event) {
	content := l.render(ev)
	if content == "" {
		return
	}
	l.append(ev.Time(), content)
}

// Note appends a free-form block, used for the session header and footer.
func (l *LogFile) Note(at time.Time, content string) {
	l.append(at, content)
}

// Flush syncs the file and reports the first write error seen since the last flush.
func (l *LogFile) Flush() error {
	if l.file == nil {
		return l.err
	}
	if err := l.file.Sync(); err != nil && l.err == nil {
		l.err = err
	}
	err := l.err
	l.err = nil
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Can't write session log "+l.path,
			"Check free disk space and permissions.")
	}
	return nil
}

// Close flushes and closes the file.
func (l *LogFile) Close() error {
	if l.file == nil {
		return nil
	}
	flushErr := l.Flush()
	closeErr := l.file.Close()
	l.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (l *LogFile) append(at time.Time, content string) {
	if l.file == nil {
		return
	}
	_, err := fmt.Fprintf(l.file, "\n[%s]\n%s\n", at.Format(time.DateTime), strings.TrimRight(content, "\n"))
	if err != nil && l.err == nil {
		l.err = err
	}
}

func (l *LogFile) render(ev sampler.Event) string {
	var sb strings.Builder

	switch e := ev.(type) {
	case sampler.CPUTick:
		s := e.Sample
		fmt.Fprintf(&sb, "CPU pid=%d process=%.1f%% system=%.1f%% idle=%.1f%% threads=%d elapsed=%s",
			s.PID, s.ProcessPercent, s.SystemPercent, s.IdlePercent, s.ThreadCount, s.Elapsed)
		if l.verbose {
			for _, th := range s.Threads {
				fmt.Fprintf(&sb, "\n  thread %d %s %.1f%%", th.TID, th.Name, th.Percent)
			}
			if e.Partial != "" {
				fmt.Fprintf(&sb, "\n  partial: %s", e.Partial)
			}
		}
	case sampler.MemoryTick:
		s := e.Snapshot
		fmt.Fprintf(&sb, "Memory pid=%d total_pss=%d KB", s.PID, s.TotalPSSKB)
		if l.verbose {
			for _, name := range sortedCategories(s.Breakdown) {
				fmt.Fprintf(&sb, "\n  %s: %d KB", name, s.Breakdown[name])
			}
			if s.Partial {
				fmt.Fprintf(&sb, "\n  partial: %s", s.PartialReason)
			}
		}
	case sampler.Peak:
		fmt.Fprintf(&sb, "New %s peak: %s", e.Metric, peakValue(e.PeakEvent))
	case sampler.Restart:
		fmt.Fprintf(&sb, "Process restarted: pid %d -> %d (start %d -> %d)",
			e.Previous.PID, e.Current.PID, e.Previous.StartTicks, e.Current.StartTicks)
		if e.Before.CPUSamples > 0 {
			fmt.Fprintf(&sb, "\n  peak cpu before restart: %.1f%% at %s", e.Before.PeakCPU, e.Before.PeakCPUAt.Format(time.DateTime))
		}
		if e.Before.MemorySamples > 0 {
			fmt.Fprintf(&sb, "\n  peak memory before restart: %d KB at %s", e.Before.PeakMemoryKB, e.Before.PeakMemoryAt.Format(time.DateTime))
		}
	case sampler.ProcessMissing:
		fmt.Fprintf(&sb, "Process not found: %s", e.Package)
	case sampler.ConnectionLost:
		fmt.Fprintf(&sb, "Connection lost after %d consecutive failures", e.Failures)
		if e.Err != nil {
			fmt.Fprintf(&sb, ": %v", e.Err)
		}
	case sampler.TickSkipped:
		if !l.verbose {
			return ""
		}
		fmt.Fprintf(&sb, "Skipped %s tick: %s", e.Metric, e.Reason)
		if e.Err != nil {
			fmt.Fprintf(&sb, " (%v)", e.Err)
		}
	}

	return sb.String()
}
