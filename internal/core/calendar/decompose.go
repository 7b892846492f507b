package calendar

import (
	"time"

	perr "findtime/internal/platform/errors"
)

// Decomposition is the coarsest-first tiling of a range into calendar blocks
// each level holds its blocks in chronological order and the union of all
// levels covers the range exactly once
type Decomposition struct {
	Range  TimeRange
	levels [len(Levels)][]Block
}

// Level returns the blocks extracted at g
func (d Decomposition) Level(g Granularity) []Block {
	if !g.Valid() {
		return nil
	}
	return d.levels[g]
}

// Len returns the total number of blocks across all levels
func (d Decomposition) Len() int {
	n := 0
	for _, l := range d.levels {
		n += len(l)
	}
	return n
}

// Decompose greedily extracts whole years, then whole months and whole days
// from the partial remainders, and leaves the rest as single hours
// finest caps the coarse levels used; anything finer than it drops straight to hours
func Decompose(r TimeRange, finest Granularity) (Decomposition, error) {
	if !finest.Valid() {
		return Decomposition{}, perr.InvalidArgf("unknown granularity %d", uint8(finest))
	}
	r, err := NewRange(r.Start, r.End)
	if err != nil {
		return Decomposition{}, err
	}
	d := Decomposition{Range: r}
	d.cover(r.Start, r.End.Add(time.Hour), Year, finest)
	return d, nil
}

// cover tiles the half-open interval [from, to) starting at granularity g
func (d *Decomposition) cover(from, to time.Time, g, finest Granularity) {
	if !from.Before(to) {
		return
	}
	if g == Hour {
		for t := from; t.Before(to); t = t.Add(time.Hour) {
			d.levels[Hour] = append(d.levels[Hour], Block{Granularity: Hour, Start: t})
		}
		return
	}

	next := Hour
	if g < finest {
		next = g + 1
	}

	lo := g.Truncate(from)
	if lo.Before(from) {
		lo = g.Add(lo, 1)
	}
	hi := g.Truncate(to)
	if !lo.Before(hi) {
		// no whole g block fits
		d.cover(from, to, next, finest)
		return
	}

	d.cover(from, lo, next, finest)
	for t := lo; t.Before(hi); t = g.Add(t, 1) {
		d.levels[g] = append(d.levels[g], Block{Granularity: g, Start: t})
	}
	d.cover(hi, to, next, finest)
}
