package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rileyhilliard/xperf/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRun struct {
	stdout, stderr string
	code           int
	err            error
	block          bool

	gotName string
	gotArgs []string
}

func (f *fakeRun) run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	f.gotName, f.gotArgs = name, args
	if f.block {
		<-ctx.Done()
		return nil, nil, -1, ctx.Err()
	}
	return []byte(f.stdout), []byte(f.stderr), f.code, f.err
}

func newTestADB(serial string, r *fakeRun) *ADB {
	return &ADB{Path: "adb", Serial: serial, run: r.run, log: logger.Noop()}
}

func TestADB_Execute_Success(t *testing.T) {
	r := &fakeRun{stdout: "25786\n"}
	a := newTestADB("emulator-5554", r)

	out, err := a.Execute(context.Background(), "pidof com.example.app")
	require.NoError(t, err)
	assert.Equal(t, "25786\n", out)
	assert.Equal(t, "adb", r.gotName)
	assert.Equal(t, []string{"-s", "emulator-5554", "shell", "pidof com.example.app"}, r.gotArgs)
}

func TestADB_Execute_NoSerial(t *testing.T) {
	r := &fakeRun{}
	a := newTestADB("", r)

	_, err := a.Execute(context.Background(), "true")
	require.NoError(t, err)
	assert.Equal(t, []string{"shell", "true"}, r.gotArgs)
}

func TestADB_Execute_Classification(t *testing.T) {
	tests := []struct {
		name     string
		run      *fakeRun
		wantKind Kind
	}{
		{"no devices", &fakeRun{stderr: "error: no devices/emulators found\n", code: 1}, Unreachable},
		{"offline", &fakeRun{stderr: "error: device offline\n", code: 1}, Unreachable},
		{"serial gone", &fakeRun{stderr: "error: device 'R58M123' not found\n", code: 1}, Unreachable},
		{"transport closed", &fakeRun{stderr: "error: closed\n", code: 1}, Unreachable},
		{"daemon down", &fakeRun{stderr: "* cannot connect to daemon at tcp:5037\n", code: 1}, Unreachable},
		{"adb missing", &fakeRun{err: errors.New(`exec: "adb": executable file not found in $PATH`), code: -1}, Unreachable},
		{"command failed on device", &fakeRun{code: 1}, NonZeroExit},
		{"missing file on device", &fakeRun{stdout: "cat: /proc/1/stat: No such file or directory\n", code: 1}, NonZeroExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestADB("", tt.run).Execute(context.Background(), "cat /proc/1/stat")
			kind, ok := KindOf(err)
			require.True(t, ok, "expected a bridge error, got %v", err)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestADB_Execute_Timeout(t *testing.T) {
	a := newTestADB("", &fakeRun{block: true})
	a.Timeout = 10 * time.Millisecond

	_, err := a.Execute(context.Background(), "dumpsys meminfo 1")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Timeout, kind)
}

func TestADB_Execute_CallerCancelPassesThrough(t *testing.T) {
	a := newTestADB("", &fakeRun{block: true})
	a.Timeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := a.Execute(ctx, "dumpsys meminfo 1")
	assert.ErrorIs(t, err, context.Canceled)
	_, isBridge := KindOf(err)
	assert.False(t, isBridge)
}

func TestADB_Devices(t *testing.T) {
	r := &fakeRun{stdout: "List of devices attached\nemulator-5554\tdevice product:x model:Pixel_7 device:y\n\n"}
	a := newTestADB("", r)

	devices, err := a.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Pixel_7", devices[0].Model)
	assert.Equal(t, []string{"devices", "-l"}, r.gotArgs)
}

// TestADB_RealProcess runs a stand-in adb script through os/exec.
func TestADB_RealProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "adb")
	content := `#!/bin/sh
if [ "$1" = "-s" ] && [ "$2" = "gone" ]; then
  echo "error: device 'gone' not found" >&2
  exit 1
fi
case "$*" in
  *"pidof missing"*) exit 1 ;;
esac
echo 25786
`
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))

	a := NewADB("", time.Second)
	a.Path = script
	out, err := a.Execute(context.Background(), "pidof com.example.app")
	require.NoError(t, err)
	assert.Equal(t, "25786\n", out)

	_, err = a.Execute(context.Background(), "pidof missing")
	kind, _ := KindOf(err)
	assert.Equal(t, NonZeroExit, kind)

	gone := NewADB("gone", time.Second)
	gone.Path = script
	_, err = gone.Execute(context.Background(), "pidof com.example.app")
	kind, _ = KindOf(err)
	assert.Equal(t, Unreachable, kind)
}
