package logger

import (
	"bytes"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		force     bool
		expectLog bool
	}{
		{name: "logs when XPERF_DEBUG is set", envValue: "1", expectLog: true},
		{name: "logs when forced by flag", force: true, expectLog: true},
		{name: "silent by default", expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			t.Setenv(DebugEnv, tt.envValue)
			EnableDebug(tt.force)
			defer EnableDebug(false)

			l := NewEnvLogger("[test]")
			l.Debug("tick %d", 7)

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] tick 7")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	buf := captureLog(t)

	l := NewEnvLogger("[sampler]")
	l.Info("started %s", "com.example")
	l.Warn("degraded tick")
	l.Error("bridge gone")

	out := buf.String()
	assert.Contains(t, out, "[sampler] started com.example")
	assert.Contains(t, out, "[sampler] WARN: degraded tick")
	assert.Contains(t, out, "[sampler] ERROR: bridge gone")
}

func TestNoopLogger(t *testing.T) {
	buf := captureLog(t)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String())
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Warn("warn %s", "msg")
	l.Warn("second")

	require.Len(t, l.Messages, 3)
	assert.True(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))
	assert.Equal(t, []string{"warn msg", "second"}, l.AtLevel("warn"))

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestBufferLogger_Concurrent(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Info("n=%d", n)
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.AtLevel("info"), 20)
}

func TestDefault(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	assert.NotNil(t, Default())

	buf := NewBufferLogger()
	SetDefault(buf)
	assert.Equal(t, buf, Default())
}
