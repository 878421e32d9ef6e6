package sampler

import (
	"context"
	"testing"

	"github.com/rileyhilliard/xperf/internal/bridge"
	bt "github.com/rileyhilliard/xperf/internal/bridge/testing"
	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Lifecycle(t *testing.T) {
	exec := bt.NewFakeExecutor().
		On("pidof "+pkg,
			bt.Fail(bridge.NonZeroExit), // not started yet
			bt.Output("25786\n"),        // first seen
			bt.Output("25786\n"),        // steady
			bt.Output("30010\n"),        // restarted
			bt.Output("30010\n"),        // collapses back to tracking
			bt.Output(""),               // stopped
			bt.Output("30010\n"),        // same process back after a blip
			bt.Fail(bridge.NonZeroExit), // stopped again
			bt.Output("31000\n"),        // new pid after stop
		).
		OnPrefix("cat /proc/25786/stat", bt.Output(statLine(25786, 100, 0))).
		OnPrefix("cat /proc/30010/stat", bt.Output(statLine(30010, 200, 0))).
		OnPrefix("cat /proc/31000/stat", bt.Output(statLine(31000, 300, 0)))

	tr := NewTracker(pkg, exec, logger.NewBufferLogger())
	ctx := context.Background()

	steps := []struct {
		kind      OutcomeKind
		restarted bool
		state     State
		pid       int
	}{
		{NotRunning, false, StateUnknown, 0},
		{Found, false, StateTracking, 25786},
		{Found, false, StateTracking, 25786},
		{Found, true, StateRestarted, 30010},
		{Found, false, StateTracking, 30010},
		{NotRunning, false, StateStopped, 0},
		{Found, false, StateTracking, 30010},
		{NotRunning, false, StateStopped, 0},
		{Found, true, StateRestarted, 31000},
	}

	for i, step := range steps {
		out, err := tr.Resolve(ctx)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.kind, out.Kind, "step %d kind", i)
		assert.Equal(t, step.restarted, out.Restarted, "step %d restarted", i)
		assert.Equal(t, step.state, tr.State(), "step %d state", i)
		if step.pid != 0 {
			assert.Equal(t, step.pid, out.Identity.PID, "step %d pid", i)
			assert.Equal(t, pkg, out.Identity.Package)
		}
	}
}

func TestTracker_PIDReuseIsRestart(t *testing.T) {
	exec := bt.NewFakeExecutor().
		On("pidof "+pkg, bt.Output("25786\n")).
		On(StatCommand(25786), bt.Output(statLine(25786, 100, 0)), bt.Output(statLine(25786, 5000, 0)))

	tr := NewTracker(pkg, exec, nil)
	ctx := context.Background()

	_, err := tr.Resolve(ctx)
	require.NoError(t, err)

	out, err := tr.Resolve(ctx)
	require.NoError(t, err)
	assert.True(t, out.Restarted)
	assert.Equal(t, int64(100), out.Previous.StartTicks)
	assert.Equal(t, int64(5000), out.Identity.StartTicks)
}

func TestTracker_NoStartTimeFallsBackToPID(t *testing.T) {
	exec := bt.NewFakeExecutor().
		On("pidof "+pkg, bt.Output("25786\n")).
		On(StatCommand(25786), bt.Fail(bridge.NonZeroExit))

	tr := NewTracker(pkg, exec, nil)
	for i := 0; i < 3; i++ {
		out, err := tr.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Found, out.Kind)
		assert.False(t, out.Restarted)
		assert.Zero(t, out.Identity.StartTicks)
	}
}

func TestTracker_LookupFailures(t *testing.T) {
	tests := []struct {
		name       string
		exec       *bt.FakeExecutor
		wantBridge bool
	}{
		{
			name:       "pidof unreachable",
			exec:       bt.NewFakeExecutor().On("pidof "+pkg, bt.Fail(bridge.Unreachable)),
			wantBridge: true,
		},
		{
			name: "stat timeout",
			exec: bt.NewFakeExecutor().
				On("pidof "+pkg, bt.Output("25786\n")).
				On(StatCommand(25786), bt.Fail(bridge.Timeout)),
			wantBridge: true,
		},
		{
			name:       "pidof garbage",
			exec:       bt.NewFakeExecutor().On("pidof "+pkg, bt.Output("/system/bin/sh: pidof: inaccessible\n")),
			wantBridge: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(pkg, tt.exec, nil)
			out, err := tr.Resolve(context.Background())
			require.Error(t, err)
			assert.Equal(t, LookupFailed, out.Kind)
			assert.Equal(t, tt.wantBridge, bridge.IsConnectionFailure(err))
			assert.Equal(t, StateUnknown, tr.State())
		})
	}
}
