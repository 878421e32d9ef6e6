package sshutil

import "context"

// Runner executes one-shot commands over an established connection.
// Both *Client and the testing mock satisfy it.
type Runner interface {
	// Run executes cmd and returns its output and exit status. err is only
	// set when the command could not be run or ctx ended first; a command
	// that ran and failed reports a non-zero exitCode with a nil err.
	Run(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error)

	// Host returns the alias or address the connection was opened for.
	Host() string

	Close() error
}
