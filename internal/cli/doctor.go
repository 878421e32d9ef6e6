package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/doctor"
	"github.com/rileyhilliard/xperf/internal/ui"
)

var (
	doctorJSON       bool
	doctorSkipTarget bool
)

// lookPath finds the adb binary for the doctor check. Tests replace it.
var lookPath = exec.LookPath

// doctorFlags are the target flags doctor shares with monitor.
var doctorFlags = map[string]string{
	"serial":     "target.serial",
	"adb":        "target.adb",
	"ssh":        "target.ssh",
	"ssh-config": "target.ssh_config",
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that xperf can sample the configured target",
	Long: `Run diagnostic checks on the config, adb, ssh_config and the target
device itself: that /proc is readable and pidof and dumpsys exist.

Uses the same config file, XPERF_* variables and target flags as monitor.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := config.NewViper()
		for name, key := range doctorFlags {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return err
			}
		}
		return doctorCommand(cmd.Context(), v, cmd.OutOrStdout())
	},
}

func init() {
	f := doctorCmd.Flags()
	f.BoolVar(&doctorJSON, "json", false, "output in JSON format")
	f.BoolVar(&doctorSkipTarget, "skip-target", false, "don't connect to the target device")
	f.StringP("serial", "s", "", "adb device serial")
	f.String("adb", config.DefaultConfig().Target.ADB, "adb binary")
	f.String("ssh", "", "check a Linux host over SSH instead of adb")
	f.String("ssh-config", "", "ssh_config file (default ~/.ssh/config)")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Results []doctor.CheckResult `json:"results"`
	Summary SummaryOutput        `json:"summary"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

func doctorCommand(ctx context.Context, v *viper.Viper, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := config.Find(cfgFile)
	var cfg *config.Config
	if err == nil {
		cfg, err = config.Load(v, path)
	}

	checks := []doctor.Check{
		&doctor.ConfigFileCheck{Explicit: cfgFile},
		&doctor.ConfigValuesCheck{Config: cfg, LoadErr: err},
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if !cfg.UsesSSH() {
		checks = append(checks,
			&doctor.ADBBinaryCheck{Path: cfg.Target.ADB, LookPath: lookPath},
			&doctor.ADBDevicesCheck{Lister: newDeviceLister(cfg.Target.ADB), Serial: cfg.Target.Serial},
		)
	}
	checks = append(checks, &doctor.SSHConfigCheck{ConfigPath: cfg.Target.SSHConfig, Target: cfg.Target.SSH})

	results := doctor.RunAll(ctx, checks)
	if !doctorSkipTarget {
		results = append(results, checkTarget(ctx, cfg)...)
	}

	if doctorJSON {
		return outputDoctorJSON(out, results)
	}
	outputDoctorText(out, results)
	return nil
}

// checkTarget connects the way monitor does and runs the target checks.
func checkTarget(ctx context.Context, cfg *config.Config) []doctor.CheckResult {
	target, closeFn, err := openExecutor(ctx, cfg)
	connect := doctor.RunAll(ctx, []doctor.Check{&doctor.ConnectCheck{Label: cfg.TargetLabel(), Err: err}})
	if err != nil {
		return connect
	}
	defer func() { _ = closeFn() }()
	return append(connect, doctor.RunAll(ctx, doctor.NewTargetChecks(target))...)
}

func outputDoctorJSON(out io.Writer, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Results: results,
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputDoctorText(out io.Writer, results []doctor.CheckResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.TitleStyle().Render("xperf diagnostic report"))
	fmt.Fprintln(out)

	grouped := doctor.GroupByCategory(results)
	for _, category := range doctor.Categories {
		group := grouped[category]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintln(out, ui.TitleStyle().Render(category))
		for _, r := range group {
			renderCheckResult(out, r)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, strings.Repeat("━", 60))
	symbol := ui.SuccessStyle().Render(ui.SymbolSuccess)
	if doctor.HasIssues(results) {
		symbol = ui.ErrorStyle().Render(ui.SymbolFail)
	}
	fmt.Fprintf(out, "%s %s\n", symbol, doctor.Summary(results))
}

func renderCheckResult(out io.Writer, r doctor.CheckResult) {
	var symbol string
	switch r.Status {
	case doctor.StatusPass:
		symbol = ui.SuccessStyle().Render(ui.SymbolSuccess)
	case doctor.StatusWarn:
		symbol = ui.WarningStyle().Render(ui.SymbolWarning)
	default:
		symbol = ui.ErrorStyle().Render(ui.SymbolFail)
	}
	fmt.Fprintf(out, "  %s %s\n", symbol, r.Message)

	if r.Suggestion != "" && r.Status != doctor.StatusPass {
		for _, line := range strings.Split(r.Suggestion, "\n") {
			fmt.Fprintf(out, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
