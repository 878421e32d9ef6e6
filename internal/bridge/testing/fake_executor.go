// Package testing provides a scripted bridge.Executor for sampler and CLI tests.
package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/rileyhilliard/xperf/internal/bridge"
)

// Result is one scripted reply.
type Result struct {
	Output string
	Err    error
}

// Output is a successful reply.
func Output(s string) Result {
	return Result{Output: s}
}

// Fail is a failed reply of the given kind.
func Fail(kind bridge.Kind) Result {
	return Result{Err: &bridge.Error{Kind: kind, Command: "scripted", ExitCode: exitCodeFor(kind)}}
}

func exitCodeFor(kind bridge.Kind) int {
	if kind == bridge.NonZeroExit {
		return 1
	}
	return -1
}

type script struct {
	match   func(cmd string) bool
	results []Result
}

// FakeExecutor answers commands from scripts. Each script replays its
// results in order and then keeps returning the last one. Scripts added
// later take precedence, so a test can override a default mid-way.
// Unscripted commands fail with NonZeroExit.
type FakeExecutor struct {
	mu      sync.Mutex
	scripts []*script
	calls   []string
	down    *bridge.Kind
}

var _ bridge.Executor = (*FakeExecutor)(nil)

// NewFakeExecutor creates an executor with no scripts.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{}
}

// On scripts replies for an exact command.
func (f *FakeExecutor) On(cmd string, results ...Result) *FakeExecutor {
	return f.add(func(c string) bool { return c == cmd }, results)
}

// OnPrefix scripts replies for every command starting with prefix.
func (f *FakeExecutor) OnPrefix(prefix string, results ...Result) *FakeExecutor {
	return f.add(func(c string) bool { return strings.HasPrefix(c, prefix) }, results)
}

func (f *FakeExecutor) add(match func(string) bool, results []Result) *FakeExecutor {
	if len(results) == 0 {
		results = []Result{Output("")}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, &script{match: match, results: results})
	return f
}

// SetDown makes every command fail with kind until SetUp is called.
func (f *FakeExecutor) SetDown(kind bridge.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = &kind
}

// SetUp clears SetDown.
func (f *FakeExecutor) SetUp() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = nil
}

// Execute implements bridge.Executor.
func (f *FakeExecutor) Execute(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)

	if f.down != nil {
		return "", &bridge.Error{Kind: *f.down, Command: cmd, ExitCode: exitCodeFor(*f.down)}
	}

	for i := len(f.scripts) - 1; i >= 0; i-- {
		s := f.scripts[i]
		if !s.match(cmd) {
			continue
		}
		r := s.results[0]
		if len(s.results) > 1 {
			s.results = s.results[1:]
		}
		return r.Output, r.Err
	}
	return "", &bridge.Error{Kind: bridge.NonZeroExit, Command: cmd, ExitCode: 127, Stderr: "not scripted"}
}

// Calls returns every command executed, in order.
func (f *FakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many executed commands start with prefix.
func (f *FakeExecutor) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
