package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/metrics"
	"github.com/rileyhilliard/xperf/internal/sampler"
)

// MemoryColumns are the App Summary categories exported as CSV columns, in order.
var MemoryColumns = []string{"Java Heap", "Native Heap", "Code", "Stack", "Graphics", "Private Other", "System"}

const csvTime = time.DateTime

// CSV records every CPU and memory sample of the session and writes them out
// on Export.
type CSV struct {
	pkg    string
	cpu    []metrics.CPUSample
	memory []metrics.MemorySnapshot
}

func NewCSV(pkg string) *CSV {
	return &CSV{pkg: pkg}
}

func (c *CSV) Emit(ev sampler.Event) {
	switch e := ev.(type) {
	case sampler.CPUTick:
		c.cpu = append(c.cpu, e.Sample)
	case sampler.MemoryTick:
		c.memory = append(c.memory, e.Snapshot)
	}
}

func (c *CSV) Flush() error { return nil }

// ThreadDir is the subdirectory per-thread exports are written to.
const ThreadDir = "thread"

// Export writes <package>_cpu_data.csv and <package>_memory_data.csv into dir
// for whichever metrics produced samples, and returns the paths written.
// When CPU samples carry a thread breakdown, each thread also gets
// thread/<package>_thread_<tid>.csv.
func (c *CSV) Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Can't create export directory "+dir,
			"Check your permissions.")
	}

	var written []string
	base := sanitizeFilename(c.pkg)

	if len(c.cpu) > 0 {
		path := filepath.Join(dir, base+"_cpu_data.csv")
		if err := writeCSV(path, c.cpuRecords()); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if len(c.memory) > 0 {
		path := filepath.Join(dir, base+"_memory_data.csv")
		if err := writeCSV(path, c.memoryRecords()); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	threads := c.threadRecords()
	if len(threads) == 0 {
		return written, nil
	}
	threadDir := filepath.Join(dir, ThreadDir)
	if err := os.MkdirAll(threadDir, 0755); err != nil {
		return written, errors.WrapWithCode(err, errors.ErrExec,
			"Can't create export directory "+threadDir,
			"Check your permissions.")
	}
	tids := make([]int, 0, len(threads))
	for tid := range threads {
		tids = append(tids, tid)
	}
	slices.Sort(tids)
	for _, tid := range tids {
		path := filepath.Join(threadDir, fmt.Sprintf("%s_thread_%d.csv", base, tid))
		if err := writeCSV(path, threads[tid]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (c *CSV) cpuRecords() [][]string {
	records := [][]string{{"Timestamp", "PID", "Process CPU %", "System CPU %", "Idle CPU %", "Threads"}}
	for _, s := range c.cpu {
		records = append(records, []string{
			s.Timestamp.Format(csvTime),
			strconv.Itoa(s.PID),
			formatFloat(s.ProcessPercent),
			formatFloat(s.SystemPercent),
			formatFloat(s.IdlePercent),
			strconv.Itoa(s.ThreadCount),
		})
	}
	return records
}

// threadRecords groups per-thread percentages by TID, one table per thread.
func (c *CSV) threadRecords() map[int][][]string {
	out := make(map[int][][]string)
	for _, s := range c.cpu {
		for _, th := range s.Threads {
			if _, ok := out[th.TID]; !ok {
				out[th.TID] = [][]string{{"Timestamp", "PID", "TID", "Name", "CPU %"}}
			}
			out[th.TID] = append(out[th.TID], []string{
				s.Timestamp.Format(csvTime),
				strconv.Itoa(s.PID),
				strconv.Itoa(th.TID),
				th.Name,
				formatFloat(th.Percent),
			})
		}
	}
	return out
}

func (c *CSV) memoryRecords() [][]string {
	header := append([]string{"Timestamp", "PID", "Total PSS"}, MemoryColumns...)
	records := [][]string{header}
	for _, s := range c.memory {
		row := []string{s.Timestamp.Format(csvTime), strconv.Itoa(s.PID), strconv.FormatInt(s.TotalPSSKB, 10)}
		for _, col := range MemoryColumns {
			// Absent categories stay empty rather than reading as zero.
			if kb, ok := s.Breakdown[col]; ok {
				row = append(row, strconv.FormatInt(kb, 10))
			} else {
				row = append(row, "")
			}
		}
		records = append(records, row)
	}
	return records
}

func writeCSV(path string, records [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Can't create "+path,
			"Check your permissions.")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WrapWithCode(cerr, errors.ErrExec,
				"Can't write "+path,
				"Check free disk space.")
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Can't write "+path,
			"Check free disk space.")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
