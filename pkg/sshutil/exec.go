package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/xperf/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Run executes cmd in a fresh session. If ctx ends first the session is
// closed, which makes the remote side see a hangup, and ctx.Err() is returned.
func (c *Client) Run(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrBridge,
			"Failed to open an SSH session",
			"The connection may have dropped.")
	}
	defer session.Close()

	var outBuf, errBuf bytes.Buffer
	session.Stdout = &outBuf
	session.Stderr = &errBuf

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, nil, -1, ctx.Err()
	case runErr := <-done:
		if runErr == nil {
			return outBuf.Bytes(), errBuf.Bytes(), 0, nil
		}
		var exitErr *ssh.ExitError
		if stderrors.As(runErr, &exitErr) {
			return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(runErr, errors.ErrBridge,
			fmt.Sprintf("Failed to run command over SSH: %s", cmd),
			"The connection may have dropped.")
	}
}
