package calendar

import (
	"fmt"
	"time"
)

// Span is a run of Count adjacent blocks at one granularity starting at Start
type Span struct {
	Granularity Granularity
	Start       time.Time
	Count       int
}

// First returns the first block of the span
func (s Span) First() Block { return Block{Granularity: s.Granularity, Start: s.Start} }

// Last returns the final block of the span
func (s Span) Last() Block {
	return Block{Granularity: s.Granularity, Start: s.Granularity.Add(s.Start, s.Count-1)}
}

// End returns the last hourly tick covered by the span
func (s Span) End() time.Time { return s.Last().End() }

// Range returns the inclusive hourly range of the whole span
func (s Span) Range() TimeRange { return TimeRange{Start: s.Start, End: s.End()} }

// Blocks expands the span back into its blocks
func (s Span) Blocks() []Block {
	out := make([]Block, 0, s.Count)
	b := s.First()
	for i := 0; i < s.Count; i++ {
		out = append(out, b)
		b = b.Next()
	}
	return out
}

func (s Span) String() string {
	if s.Count == 1 {
		return s.First().String()
	}
	return fmt.Sprintf("%s..%s", s.First(), s.Last())
}

// Compress merges a chronologically sorted run of blocks into maximal spans
// blocks of different granularity or with a gap between them never merge
func Compress(blocks []Block) []Span {
	var out []Span
	for _, b := range blocks {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Granularity == b.Granularity && last.Last().Next().Start.Equal(b.Start) {
				last.Count++
				continue
			}
		}
		out = append(out, Span{Granularity: b.Granularity, Start: b.Start, Count: 1})
	}
	return out
}
