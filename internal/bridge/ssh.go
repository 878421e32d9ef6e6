package bridge

import (
	"context"
	"time"

	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/rileyhilliard/xperf/pkg/sshutil"
)

// SSH runs commands over an SSH connection, for devices with sshd or
// Linux boards that expose the same /proc layout.
type SSH struct {
	runner  sshutil.Runner
	timeout time.Duration
	log     logger.Logger
}

// NewSSH wraps an established connection.
func NewSSH(runner sshutil.Runner, timeout time.Duration) *SSH {
	return &SSH{
		runner:  runner,
		timeout: timeout,
		log:     logger.NewEnvLogger("[ssh]"),
	}
}

// DialSSH connects to host and returns an executor over the connection.
func DialSSH(ctx context.Context, host string, timeout time.Duration, opts sshutil.Options) (*SSH, error) {
	if opts.Timeout == 0 {
		opts.Timeout = timeout
	}
	client, err := sshutil.Dial(ctx, host, opts)
	if err != nil {
		return nil, err
	}
	return NewSSH(client, timeout), nil
}

// Execute implements Executor.
func (s *SSH) Execute(ctx context.Context, cmd string) (string, error) {
	runCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	s.log.Debug("%s: %s", s.runner.Host(), cmd)
	stdout, stderr, code, err := s.runner.Run(runCtx, cmd)

	if ctxErr := contextFailure(ctx, runCtx, cmd); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", &Error{Kind: Unreachable, Command: cmd, Err: err}
	}
	if code != 0 {
		return "", &Error{
			Kind:     NonZeroExit,
			Command:  cmd,
			ExitCode: code,
			Stdout:   string(stdout),
			Stderr:   string(stderr),
		}
	}
	return string(stdout), nil
}

// Close closes the underlying connection.
func (s *SSH) Close() error {
	return s.runner.Close()
}
