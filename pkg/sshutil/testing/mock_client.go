// Package testing provides an in-memory sshutil.Runner for tests that need
// SSH behavior without a server.
package testing

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/rileyhilliard/xperf/pkg/sshutil"
)

// Response is a canned reply to a command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// MockClient answers commands from registered responses. Exact matches win
// over patterns; unmatched commands exit 127 like a missing binary.
type MockClient struct {
	mu       sync.Mutex
	host     string
	closed   bool
	exact    map[string]Response
	patterns []patternResponse
	calls    []string
}

type patternResponse struct {
	re   *regexp.Regexp
	resp Response
}

var _ sshutil.Runner = (*MockClient)(nil)

// NewMockClient creates a mock connected to host.
func NewMockClient(host string) *MockClient {
	return &MockClient{host: host, exact: make(map[string]Response)}
}

// On registers a response for an exact command.
func (m *MockClient) On(cmd string, resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[cmd] = resp
}

// OnMatch registers a response for commands matching a regular expression.
func (m *MockClient) OnMatch(pattern string, resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, patternResponse{re: regexp.MustCompile(pattern), resp: resp})
}

// Run implements sshutil.Runner.
func (m *MockClient) Run(ctx context.Context, cmd string) ([]byte, []byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, -1, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}
	m.calls = append(m.calls, cmd)

	resp, ok := m.exact[cmd]
	if !ok {
		for _, p := range m.patterns {
			if p.re.MatchString(cmd) {
				resp, ok = p.resp, true
				break
			}
		}
	}
	if !ok {
		return nil, []byte("sh: command not found"), 127, nil
	}
	if resp.Err != nil {
		return nil, nil, -1, resp.Err
	}
	return []byte(resp.Stdout), []byte(resp.Stderr), resp.ExitCode, nil
}

// Calls returns every command run so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Host implements sshutil.Runner.
func (m *MockClient) Host() string {
	return m.host
}

// Close implements sshutil.Runner.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
