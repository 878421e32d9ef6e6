package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rileyhilliard/xperf/internal/parsers"
)

// DeviceLister is satisfied by *bridge.ADB.
type DeviceLister interface {
	Devices(ctx context.Context) ([]parsers.Device, error)
}

// ADBBinaryCheck verifies the configured adb binary can be found.
type ADBBinaryCheck struct {
	Path string
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

func (c *ADBBinaryCheck) Name() string     { return "adb_binary" }
func (c *ADBBinaryCheck) Category() string { return CategoryADB }

func (c *ADBBinaryCheck) Run(context.Context) CheckResult {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	resolved, err := lookPath(c.Path)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("adb not found (%s)", c.Path),
			Suggestion: "Install the Android platform tools, or point target.adb / --adb at the binary.",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: "adb: " + resolved,
	}
}

// ADBDevicesCheck reports attached devices and whether any are ready.
type ADBDevicesCheck struct {
	Lister DeviceLister
	// Serial, when set, must be among the ready devices.
	Serial string
}

func (c *ADBDevicesCheck) Name() string     { return "adb_devices" }
func (c *ADBDevicesCheck) Category() string { return CategoryADB }

func (c *ADBDevicesCheck) Run(ctx context.Context) CheckResult {
	devices, err := c.Lister.Devices(ctx)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Can't list devices",
			Suggestion: firstLine(err.Error()),
		}
	}

	var ready, notReady []string
	for _, d := range devices {
		if d.Ready() {
			ready = append(ready, d.Serial)
		} else {
			notReady = append(notReady, fmt.Sprintf("%s (%s)", d.Serial, d.State))
		}
	}

	if c.Serial != "" {
		for _, s := range ready {
			if s == c.Serial {
				return CheckResult{Status: StatusPass, Message: "Device " + c.Serial + " ready"}
			}
		}
		return CheckResult{
			Status:     StatusFail,
			Message:    "Device " + c.Serial + " is not attached or not ready",
			Suggestion: "Run `xperf devices` to see what is attached.",
		}
	}

	switch {
	case len(ready) == 0 && len(notReady) > 0:
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No ready devices: " + strings.Join(notReady, ", "),
			Suggestion: "Accept the USB debugging prompt on the device, or reconnect it.",
		}
	case len(ready) == 0:
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No devices attached",
			Suggestion: "Connect a device with USB debugging enabled, or start an emulator.",
		}
	case len(ready) > 1:
		return CheckResult{
			Status:     StatusPass,
			Message:    fmt.Sprintf("%d devices ready: %s", len(ready), strings.Join(ready, ", ")),
			Suggestion: "Pass --serial to pick one without prompting.",
		}
	}
	return CheckResult{Status: StatusPass, Message: "1 device ready: " + ready[0]}
}

func firstLine(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "✗"))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
