package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/xperf/internal/bridge"
	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/parsers"
	"github.com/rileyhilliard/xperf/internal/ui"
	"github.com/rileyhilliard/xperf/pkg/sshutil"
)

var (
	devicesADB       string
	devicesSSHConfig string
)

// newDeviceLister builds the adb lister used by `xperf devices`. Tests replace it.
var newDeviceLister = func(adbPath string) deviceLister {
	adb := bridge.NewADB("", 10*time.Second)
	adb.Path = adbPath
	return adb
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached Android devices and SSH hosts",
	Long: `List the targets xperf can monitor: Android devices reported by
adb, and the hosts defined in your ssh_config.

Pass a device serial to monitor with --serial, or a host alias with --ssh.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return devicesCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	defaults := config.DefaultConfig()
	devicesCmd.Flags().StringVar(&devicesADB, "adb", defaults.Target.ADB, "adb binary")
	devicesCmd.Flags().StringVar(&devicesSSHConfig, "ssh-config", "", "ssh_config file (default ~/.ssh/config)")
	rootCmd.AddCommand(devicesCmd)
}

func devicesCommand(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintln(out, ui.TitleStyle().Render("Android devices"))
	devices, err := newDeviceLister(devicesADB).Devices(ctx)
	switch {
	case err != nil:
		// adb missing is common on machines that only use SSH targets.
		fmt.Fprintln(out, ui.WarningStyle().Render("  "+ui.SymbolWarning+" adb unavailable: "+firstLine(err.Error())))
	case len(devices) == 0:
		fmt.Fprintln(out, ui.MutedStyle().Render("  none attached"))
	default:
		for _, d := range devices {
			fmt.Fprintln(out, "  "+formatDevice(d))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.TitleStyle().Render("SSH hosts"))
	hosts, err := sshutil.ListHosts(config.ExpandTilde(devicesSSHConfig))
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		fmt.Fprintln(out, ui.MutedStyle().Render("  none configured"))
		return nil
	}
	for _, h := range hosts {
		fmt.Fprintf(out, "  %s %-20s %s\n", ui.SymbolBullet, h.Alias, ui.MutedStyle().Render(h.Description()))
	}
	return nil
}

func formatDevice(d parsers.Device) string {
	symbol := ui.SuccessStyle().Render(ui.SymbolSuccess)
	state := d.State
	if !d.Ready() {
		symbol = ui.ErrorStyle().Render(ui.SymbolFail)
		state = ui.WarningStyle().Render(state)
	}
	line := fmt.Sprintf("%s %-20s %s", symbol, d.Serial, state)
	if d.Model != "" {
		line += "  " + ui.MutedStyle().Render(d.Model)
	}
	return line
}

func firstLine(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), ui.SymbolFail))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
