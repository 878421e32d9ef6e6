package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/xperf/internal/sink"
	"github.com/rileyhilliard/xperf/internal/ui"
)

var summaryCmd = &cobra.Command{
	Use:   "summary FILE",
	Short: "Print a saved session summary",
	Long: `Print the summary.yaml written at the end of a monitoring session.

Example:
  xperf summary log/com.example.app/summary.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return summaryCommand(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func summaryCommand(out io.Writer, path string) error {
	s, err := sink.ReadSummary(path)
	if err != nil {
		return err
	}
	fmt.Fprint(out, renderSavedSummary(s))
	return nil
}

func renderSavedSummary(s *sink.Summary) string {
	var sb strings.Builder

	sb.WriteString(ui.TitleStyle().Render("Session summary: " + s.Package))
	sb.WriteString("\n")
	if s.Target != "" {
		sb.WriteString(fmt.Sprintf("  target   %s\n", s.Target))
	}
	sb.WriteString(fmt.Sprintf("  started  %s\n", s.StartedAt.Format(time.DateTime)))
	sb.WriteString(fmt.Sprintf("  duration %s (%s)\n", s.Duration, s.ExitStatus))

	if s.PeakCPU != nil {
		sb.WriteString(fmt.Sprintf("  Peak CPU:    %s at %s\n",
			ui.FormatPercent(s.PeakCPU.Value), s.PeakCPU.At.Format(time.TimeOnly)))
	}
	if s.PeakMemory != nil {
		sb.WriteString(fmt.Sprintf("  Peak memory: %.0f KB at %s\n",
			s.PeakMemory.Value, s.PeakMemory.At.Format(time.TimeOnly)))
	}
	sb.WriteString(fmt.Sprintf("  Restarts:    %d\n", s.Restarts))
	sb.WriteString(fmt.Sprintf("  Samples:     %d cpu, %d memory\n", s.CPUSamples, s.MemorySamples))
	if s.SkippedTicks > 0 {
		sb.WriteString(fmt.Sprintf("  Skipped ticks: %d\n", s.SkippedTicks))
	}

	if s.LogFile != "" {
		sb.WriteString(fmt.Sprintf("  %s %s\n", ui.SymbolBullet, s.LogFile))
	}
	for _, f := range s.Exports {
		sb.WriteString(fmt.Sprintf("  %s %s\n", ui.SymbolBullet, f))
	}
	return sb.String()
}
