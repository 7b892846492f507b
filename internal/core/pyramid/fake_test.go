package pyramid

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/predicate"
)

var gridEpoch = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

// grid is an in-memory oracle and baseline over a synthetic hourly series
type grid struct {
	value func(t time.Time) (float64, bool)

	// overrides replace computed bounds for a block label
	overrides map[string]predicate.Bounds

	oracleErr   error
	baselineErr error
	// short drops the last oracle sample of every response
	short bool

	mu       sync.Mutex
	oracle   []AggregateRequest
	baseline []BaselineRequest
}

func constGrid(v float64) *grid {
	return &grid{value: func(time.Time) (float64, bool) { return v, true }}
}

// seasonalGrid builds four years of temperature-like values on a 0.5 step
// with a sprinkling of missing hours
func seasonalGrid(seed int64) *grid {
	rng := rand.New(rand.NewSource(seed))
	n := 4 * 366 * 24
	vals := make([]float64, n)
	ok := make([]bool, n)
	for i := range vals {
		t := gridEpoch.Add(time.Duration(i) * time.Hour)
		season := 15 * math.Sin(2*math.Pi*float64(t.YearDay())/365)
		daily := 5 * math.Sin(2*math.Pi*float64(t.Hour())/24)
		v := 280 + season + daily + rng.NormFloat64()
		vals[i] = math.Round(v*2) / 2
		ok[i] = rng.Intn(400) != 0
	}
	return &grid{value: func(t time.Time) (float64, bool) {
		i := int(t.Sub(gridEpoch) / time.Hour)
		if i < 0 || i >= n {
			return 0, false
		}
		return vals[i], ok[i]
	}}
}

func (g *grid) Aggregate(_ context.Context, req AggregateRequest) ([]Sample, error) {
	g.mu.Lock()
	g.oracle = append(g.oracle, req)
	g.mu.Unlock()
	if g.oracleErr != nil {
		return nil, g.oracleErr
	}

	var out []Sample
	for _, sp := range req.Spans {
		for _, b := range sp.Blocks() {
			s := Sample{At: b.End()}
			if o, ok := g.overrides[b.String()]; ok {
				s.Value = o.Min
				if req.Reducer == Max {
					s.Value = o.Max
				}
				s.Valid = !math.IsNaN(s.Value)
			} else {
				s.Value, s.Valid = g.reduce(b.Range(), req.Reducer, true)
			}
			out = append(out, s)
		}
	}
	if g.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (g *grid) Series(_ context.Context, req BaselineRequest) ([]Sample, error) {
	g.mu.Lock()
	g.baseline = append(g.baseline, req)
	g.mu.Unlock()
	if g.baselineErr != nil {
		return nil, g.baselineErr
	}

	var out []Sample
	if req.Granularity == calendar.Hour {
		for i := 0; i < req.Range.Hours(); i++ {
			t := req.Range.Tick(i)
			v, ok := g.value(t)
			if !ok && i%2 == 0 {
				// alternate between omitted and explicitly invalid hours
				continue
			}
			out = append(out, Sample{At: t, Value: v, Valid: ok})
		}
		return out, nil
	}
	for b := calendar.BlockAt(req.Granularity, req.Range.Start); !b.Start.After(req.Range.End); b = b.Next() {
		r := b.Range()
		if r.Start.Before(req.Range.Start) {
			r.Start = req.Range.Start
		}
		if r.End.After(req.Range.End) {
			r.End = req.Range.End
		}
		v, ok := g.reduce(r, req.Aggregation, false)
		out = append(out, Sample{At: b.End(), Value: v, Valid: ok})
	}
	return out, nil
}

// reduce folds the valid hours of r; complete demands every hour be present
func (g *grid) reduce(r calendar.TimeRange, red Reducer, complete bool) (float64, bool) {
	n, sum := 0, 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < r.Hours(); i++ {
		v, ok := g.value(r.Tick(i))
		if !ok {
			if complete {
				return math.NaN(), false
			}
			continue
		}
		n++
		sum += v
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if n == 0 {
		return math.NaN(), false
	}
	switch red {
	case Min:
		return lo, true
	case Max:
		return hi, true
	}
	return sum / float64(n), true
}

// naive evaluates every hour directly, the reference every pruned run must match
func (g *grid) naive(r calendar.TimeRange, op predicate.Operator, t float64) []bool {
	out := make([]bool, r.Hours())
	for i := range out {
		v, ok := g.value(r.Tick(i))
		out[i] = op.Holds(v, ok, t)
	}
	return out
}

func (g *grid) calls() (oracle []AggregateRequest, baseline []BaselineRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]AggregateRequest(nil), g.oracle...), append([]BaselineRequest(nil), g.baseline...)
}
