package pyramid

import (
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/predicate"
	perr "findtime/internal/platform/errors"
)

// Resolution is a whole block decided from its bounds
type Resolution struct {
	Block calendar.Block
	Value bool
}

// Piece is a residual range evaluated exactly, one value per hour
type Piece struct {
	Range  calendar.TimeRange
	Values []bool
}

// Assemble folds resolved blocks and exact pieces into one hourly series over r
// every tick must be assigned by exactly one source
func Assemble(r calendar.TimeRange, resolved []Resolution, pieces []Piece) (Series, error) {
	n := r.Hours()
	vals := make([]bool, n)
	seen := make([]bool, n)

	assign := func(what string, start time.Time, count int, value func(k int) bool) error {
		i, ok := r.Index(start)
		if !ok || i+count > n {
			return perr.Internalf("%s falls outside %s", what, r)
		}
		for k := 0; k < count; k++ {
			if seen[i+k] {
				return perr.Internalf("tick %s assigned twice (%s)", r.Tick(i+k).Format(time.RFC3339), what)
			}
			seen[i+k] = true
			vals[i+k] = value(k)
		}
		return nil
	}

	for _, res := range resolved {
		v := res.Value
		if err := assign("block "+res.Block.String(), res.Block.Start, res.Block.Hours(), func(int) bool { return v }); err != nil {
			return Series{}, err
		}
	}
	for _, p := range pieces {
		if len(p.Values) != p.Range.Hours() {
			return Series{}, perr.Internalf("piece %s carries %d values for %d hours", p.Range, len(p.Values), p.Range.Hours())
		}
		if err := assign("piece "+p.Range.String(), p.Range.Start, len(p.Values), func(k int) bool { return p.Values[k] }); err != nil {
			return Series{}, err
		}
	}
	for i, ok := range seen {
		if !ok {
			return Series{}, perr.Internalf("tick %s left unassigned", r.Tick(i).Format(time.RFC3339))
		}
	}
	return Series{Granularity: calendar.Hour, Start: r.Start, Values: vals}, nil
}

// evalSamples turns a baseline series into booleans for n blocks starting at first
// blocks without a sample stay false
func evalSamples(g calendar.Granularity, first time.Time, n int, samples []Sample, op predicate.Operator, t float64) ([]bool, error) {
	vals := make([]bool, n)
	seen := make([]bool, n)
	for _, s := range samples {
		i := g.Steps(first, s.At)
		if i < 0 || i >= n {
			return nil, perr.Upstreamf("baseline sample at %s outside requested %s blocks from %s", s.At.Format(time.RFC3339), g, first.Format(time.RFC3339))
		}
		if seen[i] {
			return nil, perr.Upstreamf("baseline returned %s block %s twice", g, calendar.BlockAt(g, s.At))
		}
		seen[i] = true
		vals[i] = op.Holds(s.Value, s.Valid, t)
	}
	return vals, nil
}
