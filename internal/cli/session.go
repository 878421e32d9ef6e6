package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/dashboard"
	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/lock"
	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/sampler"
	"github.com/rileyhilliard/xperf/internal/sink"
	"github.com/rileyhilliard/xperf/internal/ui"
)

// session wires the sampler to its sinks and writes the end-of-session files.
type session struct {
	cfg      *config.Config
	exec     bridge.Executor
	out      io.Writer
	now      func() time.Time
	interval time.Duration

	log *sink.LogFile
	csv *sink.CSV
}

// runSession samples until ctx is cancelled or the connection is lost, then
// exports CSVs, writes summary.yaml and prints the session summary.
// A lost connection comes back as ExitError 3.
func runSession(ctx context.Context, cfg *config.Config, exec bridge.Executor, out io.Writer, now func() time.Time) error {
	interval, err := config.ParseInterval(cfg.Interval)
	if err != nil {
		return err
	}
	s := &session{cfg: cfg, exec: exec, out: out, now: now, interval: interval}

	startedAt := now()
	if !cfg.Output.NoLog {
		dir := sink.PackageDir(cfg.Output.LogDir, cfg.Package)
		held, err := lock.Acquire(dir, lock.NewLockInfo(cfg.Package, cfg.TargetLabel()))
		if err != nil {
			return err
		}
		defer func() { _ = held.Release() }()

		s.log, err = sink.NewLogFile(sink.LogFileOptions{
			BaseDir: cfg.Output.LogDir,
			Package: cfg.Package,
			CPU:     cfg.CPU,
			Memory:  cfg.Memory,
			Verbose: cfg.Verbose,
			Now:     startedAt,
		})
		if err != nil {
			return err
		}
		defer func() { _ = s.log.Close() }()
	}
	if cfg.Output.CSV {
		s.csv = sink.NewCSV(cfg.Package)
	}

	s.printBanner()
	s.note(startedAt, fmt.Sprintf("Session started: package=%s target=%s metrics=%s interval=%s",
		cfg.Package, cfg.TargetLabel(), sink.MetricsLabel(cfg.CPU, cfg.Memory), interval))

	var smp *sampler.Sampler
	run := func(ctx context.Context, display sampler.Sink) (sampler.ExitStatus, error) {
		sm, err := sampler.New(s.samplerConfig(), exec, s.sinks(display), sampler.WithClock(now))
		if err != nil {
			return sampler.ExitStopped, err
		}
		smp = sm
		return sm.Run(ctx)
	}

	console := sink.NewConsole(out, sink.ConsoleOptions{Verbose: cfg.Verbose, TopThreads: cfg.Threads})
	var status sampler.ExitStatus
	var runErr error
	if cfg.Output.TUI {
		status, runErr = dashboard.Run(ctx, cfg.Package, console, run)
	} else {
		status, runErr = run(ctx, console)
	}
	if smp == nil {
		return runErr
	}

	s.finish(smp.Stats(), status)

	if runErr != nil {
		return runErr
	}
	if status == sampler.ExitConnectionLost {
		return errors.NewExitError(ExitConnectionLost)
	}
	return nil
}

func (s *session) samplerConfig() sampler.Config {
	return sampler.Config{
		Package:          s.cfg.Package,
		Interval:         s.interval,
		CPU:              s.cfg.CPU,
		Memory:           s.cfg.Memory,
		Threads:          s.cfg.Threads > 0 || s.cfg.Verbose,
		FailureThreshold: s.cfg.FailureThreshold,
		ClockTicks:       s.cfg.ClockTicks,
	}
}

func (s *session) sinks(display sampler.Sink) sampler.Sink {
	m := sink.Multi{display}
	if s.log != nil {
		m = append(m, s.log)
	}
	if s.csv != nil {
		m = append(m, s.csv)
	}
	return m
}

func (s *session) printBanner() {
	var metricNames []string
	if s.cfg.CPU {
		metricNames = append(metricNames, "cpu")
	}
	if s.cfg.Memory {
		metricNames = append(metricNames, "memory")
	}

	fmt.Fprintf(s.out, "%s %s (%s) on %s every %s\n",
		ui.TitleStyle().Render("Monitoring"), s.cfg.Package,
		strings.Join(metricNames, ", "), s.cfg.TargetLabel(), s.interval)
	if s.log != nil {
		fmt.Fprintln(s.out, ui.MutedStyle().Render("  logging to "+s.log.Path()))
	}
	fmt.Fprintln(s.out, ui.MutedStyle().Render("  press Ctrl-C to stop"))
}

func (s *session) note(at time.Time, content string) {
	if s.log != nil {
		s.log.Note(at, content)
	}
}

// finish writes exports and the summary. Failures here are reported but
// don't change the exit status: the samples were already taken and logged.
func (s *session) finish(stats metrics.SessionStats, status sampler.ExitStatus) {
	endedAt := s.now()
	var files []string

	if s.log != nil {
		files = append(files, s.log.Path())
	}

	var exports []string
	if s.csv != nil {
		dir := "."
		if s.log != nil {
			dir = s.log.Dir()
		}
		written, err := s.csv.Export(dir)
		if err != nil {
			s.warn(err)
		}
		exports = written
		files = append(files, written...)
	}

	if s.log != nil {
		summary := sink.NewSummary(s.cfg.Package, s.cfg.TargetLabel(), stats, endedAt, status.String())
		summary.LogFile = s.log.Path()
		summary.Exports = exports
		path, err := sink.WriteSummary(s.log.Dir(), summary)
		if err != nil {
			s.warn(err)
		} else {
			files = append(files, path)
		}

		s.note(endedAt, fmt.Sprintf("Session ended: %s after %s", status, endedAt.Sub(stats.StartedAt).Truncate(time.Second)))
		if err := s.log.Close(); err != nil {
			s.warn(err)
		}
	}

	fmt.Fprintln(s.out)
	fmt.Fprint(s.out, ui.RenderSessionSummary(s.cfg.Package, stats, endedAt, files))
}

func (s *session) warn(err error) {
	fmt.Fprintln(s.out, ui.WarningStyle().Render(ui.SymbolWarning+" "+strings.TrimSpace(err.Error())))
}
