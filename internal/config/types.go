package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
const CurrentConfigVersion = 1

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is a monitoring session's settings, merged from defaults, an
// optional .xperf.yaml, XPERF_* environment variables and flags.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Package is the Android package (or process name) to sample.
	Package string `yaml:"package" mapstructure:"package"`

	// Interval is kept raw so bare numbers can mean seconds; see ParseInterval.
	Interval string `yaml:"interval" mapstructure:"interval"`

	CPU    bool `yaml:"cpu" mapstructure:"cpu"`
	Memory bool `yaml:"memory" mapstructure:"memory"`

	// Verbose adds per-thread and per-category detail to console and log.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`

	// Threads prints the N busiest threads per CPU tick. Zero disables it.
	Threads int `yaml:"threads" mapstructure:"threads"`

	// FailureThreshold is how many consecutive bridge failures end the session.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// Timeout bounds each bridge round-trip.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ClockTicks is the device's USER_HZ.
	ClockTicks int `yaml:"clock_ticks" mapstructure:"clock_ticks"`

	Target TargetConfig `yaml:"target" mapstructure:"target"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// TargetConfig selects the device bridge. Serial and SSH are mutually exclusive.
type TargetConfig struct {
	// Serial picks an adb device; empty uses the only attached one.
	Serial string `yaml:"serial" mapstructure:"serial"`

	// ADB is the adb binary to run.
	ADB string `yaml:"adb" mapstructure:"adb"`

	// SSH is a host, user@host[:port] or ssh_config alias. Setting it switches
	// the bridge from adb to SSH.
	SSH string `yaml:"ssh" mapstructure:"ssh"`

	// SSHConfig overrides ~/.ssh/config.
	SSHConfig string `yaml:"ssh_config" mapstructure:"ssh_config"`

	// InsecureIgnoreHostKey skips known_hosts verification.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key" mapstructure:"insecure_ignore_host_key"`
}

// OutputConfig controls where session output goes.
type OutputConfig struct {
	// LogDir is the root for per-package session logs.
	// Supports ~ and ${USER}, ${HOME}, ${PACKAGE}.
	LogDir string `yaml:"log_dir" mapstructure:"log_dir"`

	// NoLog disables the session log and summary.yaml.
	NoLog bool `yaml:"no_log" mapstructure:"no_log"`

	// CSV exports CPU and memory series next to the log on exit.
	CSV bool `yaml:"csv" mapstructure:"csv"`

	// TUI replaces console lines with the live dashboard.
	TUI bool `yaml:"tui" mapstructure:"tui"`

	// Color mode: "auto", "always", or "never".
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:          CurrentConfigVersion,
		Interval:         "1",
		FailureThreshold: 3,
		Timeout:          5 * time.Second,
		ClockTicks:       100,
		Target: TargetConfig{
			ADB: "adb",
		},
		Output: OutputConfig{
			LogDir: "log",
			Color:  ColorAuto,
		},
	}
}

// UsesSSH reports whether the session goes through the SSH bridge.
func (c *Config) UsesSSH() bool {
	return c.Target.SSH != ""
}

// TargetLabel names the device for logs and summaries, e.g. "adb:emulator-5554".
func (c *Config) TargetLabel() string {
	switch {
	case c.UsesSSH():
		return "ssh:" + c.Target.SSH
	case c.Target.Serial != "":
		return "adb:" + c.Target.Serial
	default:
		return "adb"
	}
}
