package parsers

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/xperf/internal/metrics"
)

// Offsets into the fields that follow the closing ")" of a /proc/<pid>/stat
// line. Field 3 (state) is offset 0.
const (
	statUtime      = 11 // field 14
	statStime      = 12 // field 15
	statNumThreads = 17 // field 20
	statStartTime  = 19 // field 22
)

// statLine is the decoded part of one /proc/<pid>/stat or task stat line.
type statLine struct {
	pid        int
	comm       string
	ticks      int64
	numThreads int
	startTicks int64
}

// parseStatLine decodes a stat line. comm may contain spaces and parentheses,
// so it is taken between the first "(" and the last ")".
func parseStatLine(line string) (statLine, error) {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		return statLine{}, fmt.Errorf("%w: no command name in stat line", ErrMalformed)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(line[:open]))
	if err != nil {
		return statLine{}, fmt.Errorf("%w: bad pid in stat line: %v", ErrMalformed, err)
	}

	rest := strings.Fields(line[closing+1:])
	if len(rest) <= statNumThreads {
		return statLine{}, fmt.Errorf("%w: stat line has %d fields after comm", ErrMalformed, len(rest))
	}

	utime, err := strconv.ParseInt(rest[statUtime], 10, 64)
	if err != nil {
		return statLine{}, fmt.Errorf("%w: utime: %v", ErrMalformed, err)
	}
	stime, err := strconv.ParseInt(rest[statStime], 10, 64)
	if err != nil {
		return statLine{}, fmt.Errorf("%w: stime: %v", ErrMalformed, err)
	}
	threads, err := strconv.Atoi(rest[statNumThreads])
	if err != nil {
		return statLine{}, fmt.Errorf("%w: num_threads: %v", ErrMalformed, err)
	}

	s := statLine{
		pid:        pid,
		comm:       line[open+1 : closing],
		ticks:      utime + stime,
		numThreads: threads,
	}
	// Start time is optional; pid equality alone decides identity without it.
	if len(rest) > statStartTime {
		if start, err := strconv.ParseInt(rest[statStartTime], 10, 64); err == nil {
			s.startTicks = start
		}
	}
	return s, nil
}

// findStatLine returns the stat line whose first field is pid.
func findStatLine(section string, pid int) (statLine, error) {
	prefix := strconv.Itoa(pid) + " "
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return parseStatLine(line)
		}
	}
	return statLine{}, ErrProcessNotFound
}

// ParseStartTicks reads the process start time (field 22) from the output of
// cat /proc/<pid>/stat. Zero with a nil error means the line carried no
// start time.
func ParseStartTicks(output string, pid int) (int64, error) {
	s, err := findStatLine(Sanitize(output), pid)
	if err != nil {
		return 0, err
	}
	return s.startTicks, nil
}

// ParseCPUSnapshot parses the batched CPU command output: the process stat
// line, /proc/stat, and optionally every task stat line, separated by "---".
// Timestamp is left for the caller to set.
func ParseCPUSnapshot(output string, pid int) (*metrics.RawSnapshot, error) {
	sections := SplitSections(Sanitize(output))
	if len(sections) < 2 {
		if strings.TrimSpace(sections[0]) == "" {
			return nil, ErrProcessNotFound
		}
		return nil, fmt.Errorf("%w: expected at least 2 sections, got %d", ErrMalformed, len(sections))
	}

	proc, err := findStatLine(sections[0], pid)
	if err != nil {
		return nil, err
	}

	snap := &metrics.RawSnapshot{
		PID:          pid,
		StartTicks:   proc.startTicks,
		ProcessTicks: proc.ticks,
		ThreadCount:  proc.numThreads,
	}

	if err := parseSystemStat(sections[1], snap); err != nil {
		return nil, err
	}

	if len(sections) > 2 && strings.TrimSpace(sections[2]) != "" {
		threads, err := parseThreads(sections[2])
		if err != nil {
			snap.Partial = true
			snap.PartialReason = err.Error()
		} else {
			snap.Threads = threads
		}
	}

	return snap, nil
}

// parseSystemStat reads the aggregate cpu line and counts cpuN lines.
func parseSystemStat(section string, snap *metrics.RawSnapshot) error {
	found := false
	scanner := bufio.NewScanner(strings.NewReader(section))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "cpu") && len(line) > 3 && line[3] >= '0' && line[3] <= '9' {
			snap.Cores++
			continue
		}
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		// cpu user nice system idle iowait irq softirq steal guest guest_nice
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return fmt.Errorf("%w: /proc/stat cpu line has %d fields", ErrMalformed, len(fields))
		}
		var total, idle int64
		for i := 1; i < len(fields); i++ {
			v, err := strconv.ParseInt(fields[i], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: /proc/stat cpu field %d: %v", ErrMalformed, i, err)
			}
			total += v
			if i == 4 || i == 5 {
				idle += v
			}
		}
		snap.SystemTicks = total
		snap.IdleTicks = idle
		found = true
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: scanning /proc/stat: %v", ErrMalformed, err)
	}
	if !found {
		return fmt.Errorf("%w: no aggregate cpu line in /proc/stat", ErrMalformed)
	}
	return nil
}

func parseThreads(section string) ([]metrics.ThreadTicks, error) {
	var threads []metrics.ThreadTicks
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s, err := parseStatLine(line)
		if err != nil {
			return nil, fmt.Errorf("thread breakdown dropped: %w", err)
		}
		threads = append(threads, metrics.ThreadTicks{TID: s.pid, Name: s.comm, Ticks: s.ticks})
	}
	return threads, nil
}
