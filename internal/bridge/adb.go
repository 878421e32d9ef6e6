package bridge

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"regexp"
	"time"

	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/rileyhilliard/xperf/internal/parsers"
)

// unreachablePatterns match adb's own diagnostics, as opposed to output of
// the command run on the device. adb exits non-zero for both, so stderr is
// the only way to tell them apart.
var unreachablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)error: no devices/emulators found`),
	regexp.MustCompile(`(?i)error: device offline`),
	regexp.MustCompile(`(?i)error: device '[^']*' not found`),
	regexp.MustCompile(`(?i)error: device unauthorized`),
	regexp.MustCompile(`(?i)error: more than one device/emulator`),
	regexp.MustCompile(`(?i)error: closed`),
	regexp.MustCompile(`(?i)error: protocol fault`),
	regexp.MustCompile(`(?i)cannot connect to daemon`),
	regexp.MustCompile(`(?i)failed to (start|check) daemon`),
}

// isUnreachable reports whether adb's stderr says the device is gone.
func isUnreachable(stderr string) bool {
	for _, p := range unreachablePatterns {
		if p.MatchString(stderr) {
			return true
		}
	}
	return false
}

// runFunc runs a local program and returns its output and exit code. err is
// only set when the program could not be run at all.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

// runLocal is the os/exec implementation of runFunc.
func runLocal(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && ctx.Err() == nil {
			return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return outBuf.Bytes(), errBuf.Bytes(), -1, err
	}
	return outBuf.Bytes(), errBuf.Bytes(), 0, nil
}

// ADB runs commands through `adb [-s serial] shell`.
type ADB struct {
	// Path is the adb binary. Empty means "adb" from PATH.
	Path string
	// Serial selects a device when several are attached.
	Serial string
	// Timeout bounds each round-trip. Zero means only ctx bounds it.
	Timeout time.Duration

	run runFunc
	log logger.Logger
}

// NewADB creates an adb executor for the given device serial (may be empty).
func NewADB(serial string, timeout time.Duration) *ADB {
	return &ADB{
		Path:    "adb",
		Serial:  serial,
		Timeout: timeout,
		run:     runLocal,
		log:     logger.NewEnvLogger("[adb]"),
	}
}

func (a *ADB) binary() string {
	if a.Path == "" {
		return "adb"
	}
	return a.Path
}

func (a *ADB) args(rest ...string) []string {
	var args []string
	if a.Serial != "" {
		args = append(args, "-s", a.Serial)
	}
	return append(args, rest...)
}

// Execute implements Executor.
func (a *ADB) Execute(ctx context.Context, cmd string) (string, error) {
	runCtx, cancel := withTimeout(ctx, a.Timeout)
	defer cancel()

	a.log.Debug("shell: %s", cmd)
	stdout, stderr, code, err := a.run(runCtx, a.binary(), a.args("shell", cmd)...)

	if ctxErr := contextFailure(ctx, runCtx, cmd); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		// adb itself is missing or not executable.
		return "", &Error{
			Kind:    Unreachable,
			Command: cmd,
			Err: errors.WrapWithCode(err, errors.ErrExec,
				"Couldn't run adb",
				"Install the Android platform tools and make sure adb is on your PATH."),
		}
	}
	if code != 0 {
		kind := NonZeroExit
		if isUnreachable(string(stderr)) || isUnreachable(string(stdout)) {
			kind = Unreachable
		}
		return "", &Error{
			Kind:     kind,
			Command:  cmd,
			ExitCode: code,
			Stdout:   string(stdout),
			Stderr:   string(stderr),
		}
	}
	return string(stdout), nil
}

// Devices lists attached devices with `adb devices -l`.
func (a *ADB) Devices(ctx context.Context) ([]parsers.Device, error) {
	runCtx, cancel := withTimeout(ctx, a.Timeout)
	defer cancel()

	stdout, stderr, code, err := a.run(runCtx, a.binary(), "devices", "-l")
	if ctxErr := contextFailure(ctx, runCtx, "devices"); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't run adb",
			"Install the Android platform tools and make sure adb is on your PATH.")
	}
	if code != 0 {
		return nil, &Error{Kind: Unreachable, Command: "devices", ExitCode: code, Stderr: string(stderr)}
	}
	return parsers.ParseADBDevices(string(stdout)), nil
}
