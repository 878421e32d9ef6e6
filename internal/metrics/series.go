package metrics

import (
	"sync"
	"time"
)

// DefaultSeriesSize keeps one hour of samples at the default 1s interval.
const DefaultSeriesSize = 3600

// Point is one timestamped value in a Series.
type Point struct {
	At    time.Time
	Value float64
}

// Series is a fixed-size ring buffer of timestamped values. The console and
// TUI sinks read it for sparklines and the CSV exporter drains it at exit, so
// access is guarded even though the sampler is the only writer.
type Series struct {
	mu    sync.RWMutex
	data  []Point
	head  int
	count int
}

// NewSeries creates a ring buffer holding up to size points.
func NewSeries(size int) *Series {
	if size <= 0 {
		size = DefaultSeriesSize
	}
	return &Series{data: make([]Point, size)}
}

// Push appends a point, overwriting the oldest once full.
func (s *Series) Push(at time.Time, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[s.head] = Point{At: at, Value: value}
	s.head = (s.head + 1) % len(s.data)
	if s.count < len(s.data) {
		s.count++
	}
}

// Last returns up to n of the most recent points, oldest first.
func (s *Series) Last(n int) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || s.count == 0 {
		return nil
	}
	if n > s.count {
		n = s.count
	}

	size := len(s.data)
	start := (s.head - n + size) % size
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = s.data[(start+i)%size]
	}
	return out
}

// LastValues is Last without timestamps, for sparkline rendering.
func (s *Series) LastValues(n int) []float64 {
	points := s.Last(n)
	if points == nil {
		return nil
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

// All returns every retained point, oldest first.
func (s *Series) All() []Point {
	return s.Last(s.Len())
}

// Len returns the number of retained points.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
