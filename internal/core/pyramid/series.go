package pyramid

import (
	"time"

	"findtime/internal/core/calendar"
)

// Series is the boolean result, one value per block from Start onward
// for hourly queries every block is one tick of the requested range
type Series struct {
	Granularity calendar.Granularity
	Start       time.Time
	Values      []bool
}

// Len returns the number of values
func (s Series) Len() int { return len(s.Values) }

// At returns the block start of the i-th value
func (s Series) At(i int) time.Time { return s.Granularity.Add(s.Start, i) }

// CountTrue returns how many values are true
func (s Series) CountTrue() int {
	n := 0
	for _, v := range s.Values {
		if v {
			n++
		}
	}
	return n
}

// Point is one timestamped value
type Point struct {
	At    time.Time
	Value bool
}

// Points expands the series into timestamped values
func (s Series) Points() []Point {
	out := make([]Point, len(s.Values))
	for i, v := range s.Values {
		out[i] = Point{At: s.At(i), Value: v}
	}
	return out
}

// Run is a maximal stretch of equal values; End is the start of its last block
type Run struct {
	Start time.Time
	End   time.Time
	Count int
	Value bool
}

// Runs run-length encodes the series
func (s Series) Runs() []Run {
	var out []Run
	for i, v := range s.Values {
		if n := len(out); n > 0 && out[n-1].Value == v {
			out[n-1].End = s.At(i)
			out[n-1].Count++
			continue
		}
		at := s.At(i)
		out = append(out, Run{Start: at, End: at, Count: 1, Value: v})
	}
	return out
}
