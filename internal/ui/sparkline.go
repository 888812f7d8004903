package ui

import (
	"strings"
)

// Sparkline is a ring buffer of throughput samples rendered as a row of
// Unicode block characters, newest sample rightmost.
type Sparkline struct {
	samples  []float64
	capacity int
	head     int
	count    int
	max      float64
}

// SparklineChars are the block characters for the eight height levels.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// NewSparkline creates a sparkline holding up to capacity samples.
func NewSparkline(capacity int) *Sparkline {
	if capacity <= 0 {
		capacity = 60
	}
	return &Sparkline{
		samples:  make([]float64, capacity),
		capacity: capacity,
	}
}

// Add records a new sample.
func (s *Sparkline) Add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % s.capacity
	s.count++

	if value > s.max {
		s.max = value
	}

	// Recompute the max once per buffer wrap so it can decay after a
	// burst. The rune scale would otherwise flatten forever.
	if s.count%s.capacity == 0 {
		s.recalculateMax()
	}
}

func (s *Sparkline) recalculateMax() {
	s.max = 0
	for _, v := range s.samples {
		if v > s.max {
			s.max = v
		}
	}
	if s.max < 1 {
		s.max = 1
	}
}

// Render returns the sparkline as width block characters. Positions
// without a sample yet render at the lowest level.
func (s *Sparkline) Render(width int) string {
	if width <= 0 {
		width = s.capacity
	}

	recent := s.recent(width)
	var b strings.Builder
	b.Grow(width * 3)

	for i := 0; i < width-len(recent); i++ {
		b.WriteRune(SparklineChars[0])
	}
	for _, v := range recent {
		b.WriteRune(s.rune(v))
	}
	return b.String()
}

// recent returns up to n samples, oldest first.
func (s *Sparkline) recent(n int) []float64 {
	have := s.count
	if have > s.capacity {
		have = s.capacity
	}
	if n > have {
		n = have
	}
	out := make([]float64, 0, n)
	for i := n; i > 0; i-- {
		idx := (s.head - i + s.capacity) % s.capacity
		out = append(out, s.samples[idx])
	}
	return out
}

// rune scales a sample to one of the eight block characters.
func (s *Sparkline) rune(value float64) rune {
	if s.max <= 0 || value <= 0 {
		return SparklineChars[0]
	}
	level := int(value / s.max * float64(len(SparklineChars)-1))
	if level < 0 {
		level = 0
	}
	if level >= len(SparklineChars) {
		level = len(SparklineChars) - 1
	}
	return SparklineChars[level]
}

// Clear resets the sparkline.
func (s *Sparkline) Clear() {
	for i := range s.samples {
		s.samples[i] = 0
	}
	s.head = 0
	s.count = 0
	s.max = 0
}

// Count returns the number of samples added since the last clear.
func (s *Sparkline) Count() int {
	return s.count
}

// Max returns the largest sample currently in the buffer.
func (s *Sparkline) Max() float64 {
	return s.max
}
