package sampler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/xperf/internal/parsers"
)

const pkg = "com.example.app"

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *manualClock { return &manualClock{t: t0} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingSink keeps every event in order.
type recordingSink struct {
	mu      sync.Mutex
	events  []Event
	flushes int
	onEmit  func(Event)
}

func (r *recordingSink) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	hook := r.onEmit
	r.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

func (r *recordingSink) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

func (r *recordingSink) take() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func statLine(pid int, start, ticks int64) string {
	return fmt.Sprintf("%d (%s) S 1 1 0 0 -1 0 0 0 0 0 %d 0 0 0 20 0 42 0 %d 0 0", pid, pkg, ticks, start)
}

// systemStat renders /proc/stat with the given busy and idle totals.
func systemStat(busy, idle int64, cores int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cpu  %d 0 0 %d 0 0 0 0 0 0\n", busy, idle)
	for i := 0; i < cores; i++ {
		fmt.Fprintf(&b, "cpu%d 0 0 0 0 0 0 0 0 0 0\n", i)
	}
	return b.String()
}

func cpuOutput(pid int, start, ticks, busy, idle int64) string {
	return statLine(pid, start, ticks) + "\n" + parsers.SectionSeparator + "\n" + systemStat(busy, idle, 10)
}

func memOutput(pssKB int64) string {
	return fmt.Sprintf("** MEMINFO in pid 1 [%s] **\n App Summary\n   Native Heap:  1000\n\n   TOTAL PSS:   %d   TOTAL RSS: 1\n", pkg, pssKB)
}

func eventTypes(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = fmt.Sprintf("%T", e)
	}
	return out
}
