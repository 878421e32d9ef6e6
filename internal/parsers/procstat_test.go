package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUSnapshot(t *testing.T) {
	output := procStat25786 + "\n---\n" + systemStat + "\n"

	snap, err := ParseCPUSnapshot(output, 25786)
	require.NoError(t, err)

	assert.Equal(t, 25786, snap.PID)
	assert.Equal(t, int64(150), snap.ProcessTicks)
	assert.Equal(t, int64(884211), snap.StartTicks)
	assert.Equal(t, 42, snap.ThreadCount)
	assert.Equal(t, int64(6450), snap.SystemTicks)
	assert.Equal(t, int64(5100), snap.IdleTicks)
	assert.Equal(t, 4, snap.Cores)
	assert.Nil(t, snap.Threads)
	assert.False(t, snap.Partial)
}

func TestParseCPUSnapshot_CommWithSpacesAndParens(t *testing.T) {
	line := `25786 (my (odd) app) R 612 612 0 0 -1 0 0 0 0 0 7 3 0 0 10 -10 5 0 1000 0 0`
	snap, err := ParseCPUSnapshot(line+"\n---\n"+systemStat, 25786)
	require.NoError(t, err)

	assert.Equal(t, int64(10), snap.ProcessTicks)
	assert.Equal(t, 5, snap.ThreadCount)
	assert.Equal(t, int64(1000), snap.StartTicks)
}

func TestParseCPUSnapshot_WithThreads(t *testing.T) {
	output := procStat25786 + "\n---\n" + systemStat + "\n---\n" + taskStats

	snap, err := ParseCPUSnapshot(output, 25786)
	require.NoError(t, err)
	require.Len(t, snap.Threads, 3)

	assert.Equal(t, 25790, snap.Threads[1].TID)
	assert.Equal(t, "RenderThread", snap.Threads[1].Name)
	assert.Equal(t, int64(30), snap.Threads[1].Ticks)
	assert.Equal(t, "Binder:25786_1", snap.Threads[2].Name)
	assert.False(t, snap.Partial)
}

func TestParseCPUSnapshot_BadThreadLineIsPartial(t *testing.T) {
	output := procStat25786 + "\n---\n" + systemStat + "\n---\n" + taskStats + "\n25999 (truncated) S 1 2"

	snap, err := ParseCPUSnapshot(output, 25786)
	require.NoError(t, err)

	assert.True(t, snap.Partial)
	assert.NotEmpty(t, snap.PartialReason)
	assert.Nil(t, snap.Threads)
	assert.Equal(t, int64(150), snap.ProcessTicks)
}

func TestParseCPUSnapshot_CRLF(t *testing.T) {
	output := procStat25786 + "\r\n---\r\n" + systemStat + "\r\n"
	snap, err := ParseCPUSnapshot(output, 25786)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Cores)
}

func TestParseCPUSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr error
	}{
		{"empty", "", ErrProcessNotFound},
		{"process gone", "cat: /proc/25786/stat: No such file or directory\n---\n" + systemStat, ErrProcessNotFound},
		{"other pid only", "30010 (x) S 1 1 0 0 -1 0 0 0 0 0 1 1 0 0 10 -10 1 0 5 0 0\n---\n" + systemStat, ErrProcessNotFound},
		{"no system section", procStat25786, ErrMalformed},
		{"no cpu line", procStat25786 + "\n---\nintr 1 2 3", ErrMalformed},
		{"bad cpu field", procStat25786 + "\n---\ncpu  1 2 x 4 5", ErrMalformed},
		{"short stat line", "25786 (app) S 1 2 3\n---\n" + systemStat, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCPUSnapshot(tt.output, 25786)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseCPUSnapshot_Idempotent(t *testing.T) {
	output := procStat25786 + "\n---\n" + systemStat + "\n---\n" + taskStats

	a, errA := ParseCPUSnapshot(output, 25786)
	b, errB := ParseCPUSnapshot(output, 25786)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestParseStartTicks(t *testing.T) {
	start, err := ParseStartTicks(procStat25786+"\n", 25786)
	require.NoError(t, err)
	assert.Equal(t, int64(884211), start)

	// A stat line cut off before field 22 has no start time, but is not an error.
	start, err = ParseStartTicks("25786 (app) S 1 1 0 0 -1 0 0 0 0 0 1 1 0 0 10 -10 3", 25786)
	require.NoError(t, err)
	assert.Zero(t, start)

	_, err = ParseStartTicks("", 25786)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}
