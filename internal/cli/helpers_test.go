package cli

import (
	"fmt"
	"strings"
	"testing"

	bt "github.com/rileyhilliard/xperf/internal/bridge/testing"
	"github.com/rileyhilliard/xperf/internal/config"
	"github.com/rileyhilliard/xperf/internal/parsers"
)

const testPackage = "com.example.app"

// isolate runs the test in an empty directory with an empty HOME, so no
// real .xperf.yaml or ssh_config leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Package = testPackage
	cfg.CPU = true
	cfg.Memory = true
	cfg.Interval = "20ms"
	cfg.Output.LogDir = t.TempDir()
	return cfg
}

func cpuOutput(ticks, busy, idle int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "25786 (%s) S 1 1 0 0 -1 0 0 0 0 0 %d 0 0 0 20 0 42 0 884211 0 0\n", testPackage, ticks)
	b.WriteString(parsers.SectionSeparator + "\n")
	fmt.Fprintf(&b, "cpu  %d 0 0 %d 0 0 0 0 0 0\n", busy, idle)
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "cpu%d 0 0 0 0 0 0 0 0 0 0\n", i)
	}
	return b.String()
}

func memOutput(pssKB int64) string {
	return fmt.Sprintf("** MEMINFO in pid 25786 [%s] **\n App Summary\n   Java Heap:  2000\n   Native Heap:  1000\n\n   TOTAL PSS:   %d   TOTAL RSS: 1\n", testPackage, pssKB)
}

// healthyDevice scripts a running app whose counters keep growing.
func healthyDevice() *bt.FakeExecutor {
	cpu := make([]bt.Result, 0, 50)
	for i := int64(0); i < 50; i++ {
		cpu = append(cpu, bt.Output(cpuOutput(100+i*10, 1000+i*40, 500+i*20)))
	}
	return bt.NewFakeExecutor().
		On("pidof "+testPackage, bt.Output("25786\n")).
		OnPrefix("cat /proc/25786/stat; echo", cpu...).
		On("cat /proc/25786/stat", bt.Output(strings.SplitN(cpuOutput(100, 0, 0), "\n", 2)[0])).
		OnPrefix("dumpsys meminfo", bt.Output(memOutput(98765)), bt.Output(memOutput(120000)), bt.Output(memOutput(110000)))
}
