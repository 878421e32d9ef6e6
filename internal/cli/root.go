package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/rileyhilliard/xperf/internal/ui"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitUnexpected     = 1
	ExitConfig         = 2
	ExitConnectionLost = 3
)

// Global flags
var (
	cfgFile string
	noColor bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "xperf",
	Short: "Sample CPU and memory of an app on an Android device or Linux host",
	Long: `xperf samples the CPU and memory usage of a single process on an
Android device (over adb) or a Linux host (over SSH) at a fixed interval.

It tracks session peaks, detects restarts, and keeps sampling through
transient failures until it is stopped or the device goes away.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
		if debug {
			logger.EnableDebug(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .xperf.yaml, searched upward)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log bridge commands and state changes (also XPERF_DEBUG=1)")
}

// Execute runs the root command and exits with the mapped status.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	// ExitError means the session already reported why it ended.
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}

	fmt.Fprint(os.Stderr, ui.ErrorStyle().Render(err.Error()))
	if !strings.HasSuffix(err.Error(), "\n") {
		fmt.Fprintln(os.Stderr)
	}
	return exitCode(err)
}

// exitCode maps an error to a process status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsCode(err, errors.ErrConfig), isUnknownCommandError(err):
		return ExitConfig
	case errors.IsCode(err, errors.ErrBridge):
		return ExitConnectionLost
	}
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}
	return ExitUnexpected
}

// isUnknownCommandError reports cobra's usage errors, which are configuration
// mistakes rather than failures.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "flag needs an argument") ||
		strings.HasPrefix(msg, "invalid argument") ||
		strings.HasPrefix(msg, "accepts ")
}
