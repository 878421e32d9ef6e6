package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/ui"
)

// monitorFlags maps each monitor flag to the config key it overrides.
var monitorFlags = map[string]string{
	"package":                  "package",
	"interval":                 "interval",
	"cpu":                      "cpu",
	"memory":                   "memory",
	"verbose":                  "verbose",
	"threads":                  "threads",
	"failure-threshold":        "failure_threshold",
	"timeout":                  "timeout",
	"clock-ticks":              "clock_ticks",
	"serial":                   "target.serial",
	"adb":                      "target.adb",
	"ssh":                      "target.ssh",
	"ssh-config":               "target.ssh_config",
	"insecure-ignore-host-key": "target.insecure_ignore_host_key",
	"log-dir":                  "output.log_dir",
	"no-log":                   "output.no_log",
	"csv":                      "output.csv",
	"tui":                      "output.tui",
	"color":                    "output.color",
}

var monitorCmd = newMonitorCmd()

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor [package]",
		Short: "Sample CPU and memory of an app until stopped",
		Long: `Sample the CPU and/or memory usage of one app at a fixed interval.

Each tick prints a line, appends a block to the session log and updates the
session peaks. A restart of the app is reported and sampling continues with
the new process. The session ends on Ctrl-C, or with exit status 3 after
--failure-threshold consecutive connection failures.

Examples:
  xperf monitor com.example.app --cpu --memory
  xperf monitor -p com.example.app --cpu --threads 5 --interval 500ms
  xperf monitor com.example.app --memory --ssh pixel-lab --csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			if len(args) == 1 {
				v.Set("package", args[0])
			}
			return monitorCommand(cmd.Context(), v, cmd)
		},
	}

	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.StringP("package", "p", "", "app package to monitor (or pass it as the argument)")
	f.String("interval", defaults.Interval, "time between samples, in seconds or as a duration (500ms)")
	f.Bool("cpu", false, "sample CPU usage")
	f.Bool("memory", false, "sample memory (PSS) usage")
	f.BoolP("verbose", "v", false, "show per-category memory and per-thread CPU detail")
	f.Int("threads", 0, "show the N busiest threads on each CPU tick")
	f.Int("failure-threshold", defaults.FailureThreshold, "consecutive connection failures before giving up")
	f.Duration("timeout", defaults.Timeout, "timeout for each command on the device")
	f.Int("clock-ticks", defaults.ClockTicks, "the device's clock ticks per second (USER_HZ)")
	f.StringP("serial", "s", "", "adb device serial")
	f.String("adb", defaults.Target.ADB, "adb binary")
	f.String("ssh", "", "monitor a Linux host over SSH instead of adb (host, user@host:port or ssh_config alias)")
	f.String("ssh-config", "", "ssh_config file (default ~/.ssh/config)")
	f.Bool("insecure-ignore-host-key", false, "skip known_hosts verification")
	f.String("log-dir", defaults.Output.LogDir, "directory for session logs")
	f.Bool("no-log", false, "don't write a session log or summary")
	f.Bool("csv", false, "export CPU and memory series as CSV when the session ends")
	f.Bool("tui", false, "show a live dashboard instead of console lines")
	f.String("color", defaults.Output.Color, "color output: auto, always or never")

	return cmd
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// bindFlags wires each monitor flag onto its config key. Only flags the user
// changed win over environment and file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range monitorFlags {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func monitorCommand(ctx context.Context, v *viper.Viper, cmd *cobra.Command) error {
	path, err := config.Find(cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v, path)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	applyColor(cfg.Output.Color)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec, closeFn, err := openExecutor(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	return runSession(ctx, cfg, exec, cmd.OutOrStdout(), time.Now)
}

func applyColor(mode string) {
	switch {
	case noColor || mode == config.ColorNever:
		ui.DisableColors()
	case mode == config.ColorAlways:
		ui.ForceColors()
	}
}
