package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/parsers"
	"github.com/rileyhilliard/xperf/pkg/sshutil"
)

// deviceLister is satisfied by *bridge.ADB.
type deviceLister interface {
	Devices(ctx context.Context) ([]parsers.Device, error)
}

// devicePicker chooses one serial out of several ready devices.
type devicePicker func(devices []parsers.Device) (string, error)

// openExecutor connects to the configured target. Tests replace it.
var openExecutor = func(ctx context.Context, cfg *config.Config) (bridge.Executor, func() error, error) {
	if cfg.UsesSSH() {
		s, err := bridge.DialSSH(ctx, cfg.Target.SSH, cfg.Timeout, sshutil.Options{
			Timeout:               cfg.Timeout,
			InsecureIgnoreHostKey: cfg.Target.InsecureIgnoreHostKey,
			ConfigPath:            cfg.Target.SSHConfig,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}

	adb := bridge.NewADB(cfg.Target.Serial, cfg.Timeout)
	adb.Path = cfg.Target.ADB
	if adb.Serial == "" {
		serial, err := selectDevice(ctx, adb, pickDevice)
		if err != nil {
			return nil, nil, err
		}
		adb.Serial = serial
		// Record the choice so logs and the summary name the device.
		cfg.Target.Serial = serial
	}
	return adb, func() error { return nil }, nil
}

// selectDevice returns the serial to use when none was given: the only ready
// device, or the picker's choice when there are several.
func selectDevice(ctx context.Context, lister deviceLister, pick devicePicker) (string, error) {
	devices, err := lister.Devices(ctx)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrBridge,
			"Can't list adb devices",
			"Check that adb works: adb devices")
	}

	var ready []parsers.Device
	var notReady []string
	for _, d := range devices {
		if d.Ready() {
			ready = append(ready, d)
		} else {
			notReady = append(notReady, fmt.Sprintf("%s (%s)", d.Serial, d.State))
		}
	}

	switch len(ready) {
	case 0:
		suggestion := "Connect a device with USB debugging enabled, then check: adb devices"
		if len(notReady) > 0 {
			suggestion = "Found " + strings.Join(notReady, ", ") + ". Authorize the device or reconnect it."
		}
		return "", errors.New(errors.ErrBridge, "No Android device connected", suggestion)
	case 1:
		return ready[0].Serial, nil
	}

	return pick(ready)
}

// pickDevice prompts for a device on a terminal and refuses to guess otherwise.
func pickDevice(devices []parsers.Device) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", severalDevicesError(devices)
	}

	options := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		label := d.Serial
		if d.Model != "" {
			label += " (" + d.Model + ")"
		}
		options = append(options, huh.NewOption(label, d.Serial))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Several devices are attached. Which one?").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"No device selected",
			"Pass --serial to pick one without prompting.")
	}
	return selected, nil
}

func severalDevicesError(devices []parsers.Device) error {
	serials := make([]string, len(devices))
	for i, d := range devices {
		serials[i] = d.Serial
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("%d devices are attached", len(devices)),
		"Pick one with --serial: "+strings.Join(serials, ", "))
}
