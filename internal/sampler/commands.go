package sampler

import (
	"fmt"
	"regexp"

	"github.com/rileyhilliard/xperf/internal/parsers"
)

// packagePattern accepts Android package and process names, including
// secondary processes such as "com.example.app:remote". Anything else
// would need shell quoting, so it is rejected up front.
var packagePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.:-]*$`)

// ValidPackage reports whether name is safe to interpolate into a command.
func ValidPackage(name string) bool {
	return packagePattern.MatchString(name)
}

// PIDCommand looks up the pid of a running package.
func PIDCommand(pkg string) string {
	return "pidof " + pkg
}

// StatCommand reads a process's stat line, for its start time.
func StatCommand(pid int) string {
	return fmt.Sprintf("cat /proc/%d/stat", pid)
}

// CPUCommand reads the process stat line and /proc/stat in one round-trip,
// plus every task's stat line when threads is set. Sections are separated
// by parsers.SectionSeparator.
func CPUCommand(pid int, threads bool) string {
	cmd := fmt.Sprintf("cat /proc/%d/stat; echo %s; cat /proc/stat", pid, parsers.SectionSeparator)
	if threads {
		// A thread exiting mid-loop must not fail the whole command.
		cmd += fmt.Sprintf("; echo %s; for t in /proc/%d/task/*; do cat $t/stat 2>/dev/null; done; true",
			parsers.SectionSeparator, pid)
	}
	return cmd
}

// MemoryCommand dumps the memory accounting of a process.
func MemoryCommand(pid int) string {
	return fmt.Sprintf("dumpsys meminfo %d", pid)
}
