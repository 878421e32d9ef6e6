package testing

import (
	"context"
	"testing"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeExecutor_ScriptsReplayThenRepeat(t *testing.T) {
	f := NewFakeExecutor().On("pidof app", Output("1\n"), Output("2\n"))
	ctx := context.Background()

	for _, want := range []string{"1\n", "2\n", "2\n"} {
		out, err := f.Execute(ctx, "pidof app")
		require.NoError(t, err)
		assert.Equal(t, want, out)
	}
	assert.Equal(t, 3, f.CallCount("pidof"))
}

func TestFakeExecutor_LaterScriptsWin(t *testing.T) {
	f := NewFakeExecutor().OnPrefix("cat ", Output("old"))
	f.On("cat /proc/1/stat", Fail(bridge.Timeout))

	_, err := f.Execute(context.Background(), "cat /proc/1/stat")
	kind, ok := bridge.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, bridge.Timeout, kind)

	out, err := f.Execute(context.Background(), "cat /proc/stat")
	require.NoError(t, err)
	assert.Equal(t, "old", out)
}

func TestFakeExecutor_DownAndUnscripted(t *testing.T) {
	f := NewFakeExecutor().On("x", Output("ok"))

	f.SetDown(bridge.Unreachable)
	_, err := f.Execute(context.Background(), "x")
	assert.True(t, bridge.IsConnectionFailure(err))

	f.SetUp()
	out, err := f.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = f.Execute(context.Background(), "y")
	kind, _ := bridge.KindOf(err)
	assert.Equal(t, bridge.NonZeroExit, kind)
	assert.Equal(t, []string{"x", "x", "y"}, f.Calls())
}
