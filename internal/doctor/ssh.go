package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/xperf/pkg/sshutil"
)

// SSHConfigCheck verifies ssh_config parses and lists its concrete hosts.
type SSHConfigCheck struct {
	// ConfigPath overrides ~/.ssh/config.
	ConfigPath string
	// Target is the configured --ssh host, if any.
	Target string
}

func (c *SSHConfigCheck) Name() string     { return "ssh_config" }
func (c *SSHConfigCheck) Category() string { return CategorySSH }

func (c *SSHConfigCheck) Run(context.Context) CheckResult {
	hosts, err := sshutil.ListHosts(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "ssh_config could not be parsed",
			Suggestion: err.Error(),
		}
	}

	if c.Target != "" {
		for _, h := range hosts {
			if h.Alias == c.Target {
				return CheckResult{
					Status:  StatusPass,
					Message: fmt.Sprintf("Target %s: %s", c.Target, h.Description()),
				}
			}
		}
	}

	if len(hosts) == 0 {
		return CheckResult{
			Status:  StatusPass,
			Message: "No hosts in ssh_config",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d host%s in ssh_config", len(hosts), pluralize(len(hosts))),
	}
}
