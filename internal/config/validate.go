package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/sampler"
)

// ParseInterval accepts a bare number of seconds ("1", "0.5") or a Go
// duration string ("500ms", "2s"). The result must be positive.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New(errors.ErrConfig, "Interval is empty", "Try --interval 1 or --interval 500ms.")
	}

	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, errors.New(errors.ErrConfig,
				fmt.Sprintf("Can't parse interval '%s'", s),
				"Use seconds (1, 0.5) or a duration (500ms, 2s).")
		}
		d = time.Duration(secs * float64(time.Second))
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Can't parse interval '%s'", s),
				"Use seconds (1, 0.5) or a duration (500ms, 2s).")
		}
		d = parsed
	}

	if d <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Interval must be positive, got '%s'", s),
			"Try --interval 1 or --interval 500ms.")
	}
	return d, nil
}

// Validate checks a merged config before any sampling starts.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but xperf only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade xperf or lower the version in .xperf.yaml.")
	}

	if cfg.Package == "" {
		return errors.New(errors.ErrConfig, "No package given", "Pass the app to monitor with --package.")
	}
	if !sampler.ValidPackage(cfg.Package) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not a valid package name", cfg.Package),
			"Package names look like com.example.app or com.example.app:service.")
	}

	if !cfg.CPU && !cfg.Memory {
		return errors.New(errors.ErrConfig, "No monitoring options selected", "Use --cpu or --memory (or both).")
	}

	if _, err := ParseInterval(cfg.Interval); err != nil {
		return err
	}

	if cfg.Threads < 0 {
		return errors.New(errors.ErrConfig, "--threads can't be negative", "Pass the number of threads to show, e.g. --threads 5.")
	}
	if cfg.FailureThreshold < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Failure threshold must be at least 1, got %d", cfg.FailureThreshold),
			"Set failure_threshold to how many consecutive failures end the session.")
	}
	if cfg.Timeout <= 0 {
		return errors.New(errors.ErrConfig, "Timeout must be positive", "Try --timeout 5s.")
	}
	if cfg.ClockTicks < 0 {
		return errors.New(errors.ErrConfig, "clock_ticks can't be negative", "Leave it unset for the usual 100 Hz.")
	}

	if cfg.Target.SSH != "" && cfg.Target.Serial != "" {
		return errors.New(errors.ErrConfig,
			"Pick either --serial or --ssh, not both",
			"--serial selects an adb device; --ssh samples a Linux host over SSH.")
	}
	if !cfg.UsesSSH() && cfg.Target.ADB == "" {
		return errors.New(errors.ErrConfig, "No adb binary configured", "Set target.adb or leave it at the default 'adb'.")
	}

	switch cfg.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown color mode '%s'", cfg.Output.Color),
			"Use auto, always, or never.")
	}

	if !cfg.Output.NoLog && cfg.Output.LogDir == "" {
		return errors.New(errors.ErrConfig, "Log directory is empty", "Set --log-dir, or pass --no-log.")
	}

	return nil
}
