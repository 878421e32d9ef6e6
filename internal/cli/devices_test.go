package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/xperf/internal/parsers"
)

func withLister(t *testing.T, l deviceLister) {
	t.Helper()
	orig := newDeviceLister
	newDeviceLister = func(string) deviceLister { return l }
	t.Cleanup(func() { newDeviceLister = orig })
}

func withSSHConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ssh_config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	orig := devicesSSHConfig
	devicesSSHConfig = path
	t.Cleanup(func() { devicesSSHConfig = orig })
}

func TestDevicesCommand(t *testing.T) {
	withLister(t, fakeLister{devices: []parsers.Device{
		{Serial: "R58M123", State: "device", Model: "Pixel_7"},
		{Serial: "0A1B2C", State: "unauthorized"},
	}})
	withSSHConfig(t, `Host pixel-lab
  HostName 10.0.0.12
  User shell

Host *
  ServerAliveInterval 30
`)

	var out bytes.Buffer
	require.NoError(t, devicesCommand(context.Background(), &out))

	text := out.String()
	assert.Contains(t, text, "Android devices")
	assert.Regexp(t, `R58M123\s+device\s+Pixel_7`, text)
	assert.Regexp(t, `0A1B2C\s+unauthorized`, text)
	assert.Contains(t, text, "SSH hosts")
	assert.Regexp(t, `pixel-lab\s+10\.0\.0\.12, user shell`, text)
	assert.NotContains(t, text, "Host *")
}

func TestDevicesCommand_AdbMissingIsAWarning(t *testing.T) {
	withLister(t, fakeLister{err: fmt.Errorf("exec: \"adb\": executable file not found in $PATH")})
	withSSHConfig(t, "")

	var out bytes.Buffer
	require.NoError(t, devicesCommand(context.Background(), &out))

	assert.Contains(t, out.String(), "adb unavailable: exec: \"adb\": executable file not found")
	assert.Contains(t, out.String(), "none configured")
}

func TestDevicesCommand_NothingAttached(t *testing.T) {
	withLister(t, fakeLister{})
	withSSHConfig(t, "")

	var out bytes.Buffer
	require.NoError(t, devicesCommand(context.Background(), &out))
	assert.Contains(t, out.String(), "none attached")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Couldn't run adb", firstLine("✗ Couldn't run adb\n\n  exec: not found\n"))
	assert.Equal(t, "plain", firstLine("plain"))
}
