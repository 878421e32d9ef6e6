package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/rileyhilliard/xperf/internal/parsers"
	"github.com/rileyhilliard/xperf/internal/sampler"
)

// ConnectCheck reports the outcome of connecting to the target.
type ConnectCheck struct {
	Label string
	Err   error
}

func (c *ConnectCheck) Name() string     { return "target_connect" }
func (c *ConnectCheck) Category() string { return CategoryTarget }

func (c *ConnectCheck) Run(context.Context) CheckResult {
	if c.Err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Can't connect to " + c.Label,
			Suggestion: firstLine(c.Err.Error()),
		}
	}
	return CheckResult{Status: StatusPass, Message: "Connected to " + c.Label}
}

// ProcStatCheck runs the CPU read against pid 1 and parses it the way a
// session would, which proves both /proc files are readable.
type ProcStatCheck struct {
	Exec bridge.Executor
}

func (c *ProcStatCheck) Name() string     { return "target_procfs" }
func (c *ProcStatCheck) Category() string { return CategoryTarget }

func (c *ProcStatCheck) Run(ctx context.Context) CheckResult {
	out, err := c.Exec.Execute(ctx, sampler.CPUCommand(1, false))
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Can't read /proc/stat",
			Suggestion: firstLine(err.Error()),
		}
	}
	snap, err := parsers.ParseCPUSnapshot(out, 1)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Unexpected /proc output",
			Suggestion: err.Error(),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("/proc readable, %d cores", snap.Cores),
	}
}

// ToolCheck verifies a command exists on the target.
type ToolCheck struct {
	Exec bridge.Executor
	Tool string
	// Needed is what the tool is used for, e.g. "process lookup".
	Needed string
	// Optional downgrades a missing tool to a warning.
	Optional bool
}

func (c *ToolCheck) Name() string     { return "target_tool_" + c.Tool }
func (c *ToolCheck) Category() string { return CategoryTarget }

func (c *ToolCheck) Run(ctx context.Context) CheckResult {
	_, err := c.Exec.Execute(ctx, "command -v "+c.Tool)
	if err == nil {
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s available (%s)", c.Tool, c.Needed)}
	}

	status := StatusFail
	if c.Optional {
		status = StatusWarn
	}
	if kind, ok := bridge.KindOf(err); ok && kind == bridge.NonZeroExit {
		return CheckResult{
			Status:     status,
			Message:    fmt.Sprintf("%s not found, %s won't work", c.Tool, c.Needed),
			Suggestion: "Install " + c.Tool + " on the target, or skip the metric that needs it.",
		}
	}
	return CheckResult{
		Status:     StatusFail,
		Message:    "Can't check for " + c.Tool,
		Suggestion: firstLine(err.Error()),
	}
}

// NewTargetChecks builds the checks run against a connected target.
func NewTargetChecks(exec bridge.Executor) []Check {
	return []Check{
		&ProcStatCheck{Exec: exec},
		&ToolCheck{Exec: exec, Tool: "pidof", Needed: "process lookup"},
		&ToolCheck{Exec: exec, Tool: "dumpsys", Needed: "memory sampling", Optional: true},
	}
}
