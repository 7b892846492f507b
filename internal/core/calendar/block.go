package calendar

import (
	"slices"
	"time"
)

// Block is one calendar unit at a granularity, identified by its start instant
type Block struct {
	Granularity Granularity
	Start       time.Time
}

// BlockAt returns the g block containing t
func BlockAt(g Granularity, t time.Time) Block {
	return Block{Granularity: g, Start: g.Truncate(t)}
}

// Next returns the block immediately after b at the same granularity
func (b Block) Next() Block {
	return Block{Granularity: b.Granularity, Start: b.Granularity.Add(b.Start, 1)}
}

// End returns the last hourly tick inside b
func (b Block) End() time.Time { return b.Next().Start.Add(-time.Hour) }

// Range returns the inclusive hourly range b covers
func (b Block) Range() TimeRange { return TimeRange{Start: b.Start, End: b.End()} }

// Hours returns how many hourly ticks b holds
func (b Block) Hours() int { return int(b.Next().Start.Sub(b.Start) / time.Hour) }

// Children tiles b with blocks of the next finer granularity
// an Hour block has no children
func (b Block) Children() []Block {
	fg, ok := b.Granularity.Finer()
	if !ok {
		return nil
	}
	end := b.Next().Start
	out := make([]Block, 0, 31)
	for c := (Block{Granularity: fg, Start: b.Start}); c.Start.Before(end); c = c.Next() {
		out = append(out, c)
	}
	return out
}

// String renders a compact label, e.g. 2021, 2021-03, 2021-03-04, 2021-03-04T05
func (b Block) String() string { return b.Start.Format(b.Granularity.layout()) }

// SortBlocks orders blocks chronologically, coarser first on equal starts
func SortBlocks(bs []Block) {
	slices.SortFunc(bs, func(a, b Block) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return int(a.Granularity) - int(b.Granularity)
	})
}

func sortRanges(rs []TimeRange) {
	slices.SortFunc(rs, func(a, b TimeRange) int { return a.Start.Compare(b.Start) })
}
