package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/xperf/internal/config"
)

// ConfigFileCheck reports which config file, if any, a session would use.
// Running without one is fine: flags and XPERF_* variables cover everything.
type ConfigFileCheck struct {
	Explicit string
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.Explicit)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Config file not usable",
			Suggestion: firstLine(err.Error()),
		}
	}
	if path == "" {
		return CheckResult{
			Status:  StatusPass,
			Message: "No config file, using flags and defaults",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: "Config file: " + path,
	}
}

// ConfigValuesCheck validates a loaded config. Package and metrics usually
// come from flags, so they are only checked when the file sets a package.
type ConfigValuesCheck struct {
	Config  *config.Config
	LoadErr error
}

func (c *ConfigValuesCheck) Name() string     { return "config_values" }
func (c *ConfigValuesCheck) Category() string { return CategoryConfig }

func (c *ConfigValuesCheck) Run(context.Context) CheckResult {
	if c.LoadErr != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Config failed to load",
			Suggestion: firstLine(c.LoadErr.Error()),
		}
	}
	if c.Config == nil {
		return CheckResult{Status: StatusFail, Message: "No config loaded"}
	}

	probe := *c.Config
	if probe.Package == "" {
		probe.Package = "com.example.probe"
		probe.CPU = true
	}
	if err := config.Validate(&probe); err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Invalid setting: " + firstLine(err.Error()),
			Suggestion: "Fix the value in your config file, environment or flags.",
		}
	}

	interval, _ := config.ParseInterval(probe.Interval)
	return CheckResult{
		Status: StatusPass,
		Message: fmt.Sprintf("Settings valid: every %s, give up after %d failures, %s per command",
			interval, probe.FailureThreshold, probe.Timeout),
	}
}
