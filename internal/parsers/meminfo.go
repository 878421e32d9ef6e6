package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/xperf/internal/metrics"
)

// ParseMemInfo parses `dumpsys meminfo <pid>`.
//
// The total comes from the "TOTAL PSS:" summary label and falls back to the
// first column of the TOTAL row in the detail table. Categories are read
// from the "App Summary" block, which ends at its TOTAL line or the next
// section header. A category whose value cannot be parsed is dropped and the
// snapshot is marked partial.
func ParseMemInfo(output string, pid int) (*metrics.MemorySnapshot, error) {
	output = Sanitize(output)
	if strings.Contains(output, "No process found") {
		return nil, ErrProcessNotFound
	}

	snap := &metrics.MemorySnapshot{PID: pid, Breakdown: make(map[string]int64)}

	var summaryTotal, tableTotal int64 = -1, -1
	var bad []string
	inSummary := false

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "TOTAL PSS:") {
			fields := strings.Fields(strings.TrimPrefix(line, "TOTAL PSS:"))
			if len(fields) > 0 {
				if v, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
					summaryTotal = v
				}
			}
			inSummary = false
			continue
		}

		if line == "App Summary" {
			inSummary = true
			continue
		}

		if inSummary && endsSummary(line) {
			// Android 6-9 close the block with "TOTAL:" instead of "TOTAL PSS:".
			if rest, ok := strings.CutPrefix(line, "TOTAL:"); ok && summaryTotal < 0 {
				if fields := strings.Fields(rest); len(fields) > 0 {
					if v, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
						summaryTotal = v
					}
				}
			}
			inSummary = false
			continue
		}

		if !inSummary {
			fields := strings.Fields(line)
			if tableTotal < 0 && len(fields) >= 2 && fields[0] == "TOTAL" {
				if v, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
					tableTotal = v
				}
			}
			continue
		}

		label, value, ok := strings.Cut(line, ":")
		if !ok {
			// Column headers and dashed rules.
			continue
		}
		label = strings.TrimSpace(label)
		fields := strings.Fields(value)
		if label == "" || len(fields) == 0 {
			continue
		}
		kb, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			bad = append(bad, label)
			continue
		}
		snap.Breakdown[label] = kb
	}

	switch {
	case summaryTotal >= 0:
		snap.TotalPSSKB = summaryTotal
	case tableTotal >= 0:
		snap.TotalPSSKB = tableTotal
	default:
		return nil, fmt.Errorf("%w: no TOTAL PSS in meminfo output", ErrMalformed)
	}

	if len(bad) > 0 {
		snap.Partial = true
		snap.PartialReason = "unparsable categories: " + strings.Join(bad, ", ")
	}
	return snap, nil
}

// summaryEnd lists the section headers that follow the App Summary block.
var summaryEnd = []string{"Objects", "SQL", "DATABASES", "Asset Allocations", "Dalvik Details"}

func endsSummary(line string) bool {
	if strings.HasPrefix(line, "TOTAL") {
		return true
	}
	for _, h := range summaryEnd {
		if line == h {
			return true
		}
	}
	return false
}
