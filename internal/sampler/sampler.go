// Package sampler drives the sampling loop: on every tick it resolves the
// monitored process, reads its counters over the bridge, turns them into
// samples and hands the resulting events to the sinks.
package sampler

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/parsers"
	"golang.org/x/sync/errgroup"
)

// Defaults for Config fields left at zero.
const (
	DefaultInterval         = time.Second
	DefaultFailureThreshold = 3
)

// ExitStatus says why Run returned.
type ExitStatus int

const (
	// ExitStopped means the context was cancelled.
	ExitStopped ExitStatus = iota
	// ExitConnectionLost means the bridge failed FailureThreshold times in a row.
	ExitConnectionLost
)

func (s ExitStatus) String() string {
	if s == ExitConnectionLost {
		return "connection lost"
	}
	return "stopped"
}

// Config selects what is sampled and how often.
type Config struct {
	Package  string
	Interval time.Duration

	CPU    bool
	Memory bool
	// Threads requests the per-thread CPU breakdown.
	Threads bool

	// FailureThreshold is the number of consecutive Unreachable or Timeout
	// round-trips that ends the session.
	FailureThreshold int

	// ClockTicks is the device's USER_HZ. Zero means 100.
	ClockTicks int
}

// Validate reports configuration errors that must stop the session before
// it starts.
func (c *Config) Validate() error {
	if c.Package == "" {
		return errors.New(errors.ErrConfig, "No package given", "Pass the app to monitor with --package.")
	}
	if !ValidPackage(c.Package) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not a valid package name", c.Package),
			"Package names look like com.example.app or com.example.app:service.")
	}
	if !c.CPU && !c.Memory {
		return errors.New(errors.ErrConfig, "Nothing to sample", "Pass --cpu, --memory, or both.")
	}
	if c.Interval < 0 {
		return errors.New(errors.ErrConfig, "Interval must be positive", "Try --interval 1 or --interval 500ms.")
	}
	if c.FailureThreshold < 0 {
		return errors.New(errors.ErrConfig, "Failure threshold must be at least 1", "")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
}

// Option customizes a Sampler.
type Option func(*Sampler)

// WithLogger sets the diagnostic logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) { s.log = log }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// Sampler owns all session state. Nothing in it is shared with another
// goroutine except for the duration of one tick's round-trips, which write
// to separate slots and are joined before any state changes.
type Sampler struct {
	cfg     Config
	exec    bridge.Executor
	sink    Sink
	tracker *Tracker
	log     logger.Logger
	now     func() time.Time

	prev     *metrics.RawSnapshot
	stats    *metrics.SessionStats
	failures int
	lastErr  error
}

// New validates cfg and builds a sampler.
func New(cfg Config, exec bridge.Executor, sink Sink, opts ...Option) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	s := &Sampler{
		cfg:  cfg,
		exec: exec,
		sink: sink,
		log:  logger.NewEnvLogger("[sampler]"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = NewTracker(cfg.Package, exec, s.log)
	s.stats = metrics.NewSessionStats(s.now())
	return s, nil
}

// Stats returns a copy of the session aggregates.
func (s *Sampler) Stats() metrics.SessionStats {
	return s.stats.Snapshot()
}

// Run samples until ctx is cancelled or the connection is lost. The first
// tick runs immediately. Cancellation is observed between ticks; a tick in
// flight runs to completion and emits its events. Sinks are flushed before
// returning and a flush failure is returned alongside the status.
func (s *Sampler) Run(ctx context.Context) (ExitStatus, error) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Debug("sampling %s every %s (cpu=%t memory=%t threads=%t)",
		s.cfg.Package, s.cfg.Interval, s.cfg.CPU, s.cfg.Memory, s.cfg.Threads)

	for {
		if ctx.Err() != nil {
			return ExitStopped, s.flush()
		}
		if lost := s.Tick(ctx); lost {
			return ExitConnectionLost, s.flush()
		}
		select {
		case <-ctx.Done():
			return ExitStopped, s.flush()
		case <-ticker.C:
		}
	}
}

func (s *Sampler) flush() error {
	if err := s.sink.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

// tickResult collects one tick's events in emission order.
type tickResult struct {
	events []Event
	skips  []Event
}

func (r *tickResult) add(e Event)  { r.events = append(r.events, e) }
func (r *tickResult) skip(e Event) { r.skips = append(r.skips, e) }

// Tick performs one sampling cycle and reports whether the connection is
// now considered lost. Events are emitted in a fixed order: restart, cpu,
// cpu peak, memory, memory peak, then any skips.
//
// Round-trips are not interrupted by cancelling ctx; each one still ends at
// the executor's own timeout.
func (s *Sampler) Tick(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)
	at := s.now()
	var res tickResult

	outcome, err := s.tracker.Resolve(ctx)
	if s.roundTrip(err) {
		s.connectionLost(at, &res)
		return true
	}

	switch outcome.Kind {
	case NotRunning:
		s.prev = nil
		s.emit(ProcessMissing{At: at, Package: s.cfg.Package})
		return false
	case LookupFailed:
		s.log.Warn("process lookup failed: %v", err)
		s.stats.RecordSkip()
		s.emit(TickSkipped{At: at, Reason: SkipLookupFailed, Err: err})
		return false
	}

	if outcome.Restarted {
		before := s.stats.Snapshot()
		s.stats.RecordRestart()
		s.prev = nil
		res.add(Restart{
			At:       at,
			Package:  s.cfg.Package,
			Previous: outcome.Previous,
			Current:  outcome.Identity,
			Before:   before,
		})
	}

	pid := outcome.Identity.PID
	cpu, mem := s.readCounters(ctx, pid)

	if s.cfg.CPU {
		if s.roundTrip(cpu.err) {
			s.connectionLost(at, &res)
			return true
		}
		s.handleCPU(pid, cpu, &res)
	}
	if s.cfg.Memory {
		if s.roundTrip(mem.err) {
			s.connectionLost(at, &res)
			return true
		}
		s.handleMemory(pid, mem, &res)
	}

	for _, e := range res.events {
		s.emit(e)
	}
	for _, e := range res.skips {
		s.emit(e)
	}
	return false
}

// reading is the raw result of one round-trip.
type reading struct {
	out string
	err error
	at  time.Time
}

// readCounters runs the CPU and memory commands concurrently and waits for
// both. Each goroutine writes only its own slot. Errors stay in the slots
// because failures are counted per round-trip in a fixed order, so the group
// is only a join.
func (s *Sampler) readCounters(ctx context.Context, pid int) (cpu, mem reading) {
	var g errgroup.Group
	if s.cfg.CPU {
		g.Go(func() error {
			cpu.out, cpu.err = s.exec.Execute(ctx, CPUCommand(pid, s.cfg.Threads))
			cpu.at = s.now()
			return nil
		})
	}
	if s.cfg.Memory {
		g.Go(func() error {
			mem.out, mem.err = s.exec.Execute(ctx, MemoryCommand(pid))
			mem.at = s.now()
			return nil
		})
	}
	_ = g.Wait()
	return cpu, mem
}

// roundTrip updates the consecutive failure count and reports whether the
// threshold has been reached.
func (s *Sampler) roundTrip(err error) bool {
	if !bridge.IsConnectionFailure(err) {
		s.failures = 0
		return false
	}
	s.failures++
	s.lastErr = err
	s.log.Warn("bridge failure %d/%d: %v", s.failures, s.cfg.FailureThreshold, err)
	return s.failures >= s.cfg.FailureThreshold
}

func (s *Sampler) connectionLost(at time.Time, res *tickResult) {
	for _, e := range res.events {
		s.emit(e)
	}
	s.log.Error("giving up after %d consecutive bridge failures", s.failures)
	s.emit(ConnectionLost{At: at, Failures: s.failures, Err: s.lastErr})
}

func (s *Sampler) handleCPU(pid int, r reading, res *tickResult) {
	if r.err != nil {
		s.skipped(res, metrics.MetricCPU, r.at, bridgeSkipReason(r.err), r.err)
		return
	}

	snap, err := parsers.ParseCPUSnapshot(r.out, pid)
	if err != nil {
		reason := SkipParseError
		if stderrors.Is(err, parsers.ErrProcessNotFound) {
			reason = SkipProcessGone
		}
		s.skipped(res, metrics.MetricCPU, r.at, reason, err)
		return
	}
	snap.Timestamp = r.at
	if snap.Partial {
		s.log.Warn("cpu snapshot partial: %s", snap.PartialReason)
	}

	sample, err := metrics.Compute(s.prev, snap, metrics.DeltaConfig{ClockTicks: s.cfg.ClockTicks})
	if !stderrors.Is(err, metrics.ErrNonMonotonicClock) {
		s.prev = snap
	}
	if err != nil {
		s.skipped(res, metrics.MetricCPU, r.at, deltaSkipReason(err), err)
		return
	}

	res.add(CPUTick{Package: s.cfg.Package, Sample: sample, Partial: snap.PartialReason})
	if peak := s.stats.RecordCPU(sample); peak != nil {
		res.add(Peak{PeakEvent: *peak, Package: s.cfg.Package})
	}
}

func (s *Sampler) handleMemory(pid int, r reading, res *tickResult) {
	if r.err != nil {
		s.skipped(res, metrics.MetricMemory, r.at, bridgeSkipReason(r.err), r.err)
		return
	}

	snap, err := parsers.ParseMemInfo(r.out, pid)
	if err != nil {
		reason := SkipParseError
		if stderrors.Is(err, parsers.ErrProcessNotFound) {
			reason = SkipProcessGone
		}
		s.skipped(res, metrics.MetricMemory, r.at, reason, err)
		return
	}
	snap.Timestamp = r.at
	if snap.Partial {
		s.log.Warn("memory snapshot partial: %s", snap.PartialReason)
	}

	res.add(MemoryTick{Package: s.cfg.Package, Snapshot: *snap})
	if peak := s.stats.RecordMemory(*snap); peak != nil {
		res.add(Peak{PeakEvent: *peak, Package: s.cfg.Package})
	}
}

func (s *Sampler) skipped(res *tickResult, metric metrics.Metric, at time.Time, reason SkipReason, err error) {
	s.stats.RecordSkip()
	if reason != SkipInsufficientHistory {
		s.log.Warn("%s skipped (%s): %v", metric, reason, err)
	}
	res.skip(TickSkipped{At: at, Metric: metric, Reason: reason, Err: err})
}

func (s *Sampler) emit(e Event) {
	s.sink.Emit(e)
}

// bridgeSkipReason maps a failed round-trip. A command that ran and failed
// almost always means the process exited between lookup and read.
func bridgeSkipReason(err error) SkipReason {
	if kind, ok := bridge.KindOf(err); ok && kind == bridge.NonZeroExit {
		return SkipProcessGone
	}
	return SkipBridgeError
}

func deltaSkipReason(err error) SkipReason {
	switch {
	case stderrors.Is(err, metrics.ErrInsufficientHistory):
		return SkipInsufficientHistory
	case stderrors.Is(err, metrics.ErrIdentityChanged):
		return SkipIdentityChanged
	default:
		return SkipIndeterminate
	}
}
