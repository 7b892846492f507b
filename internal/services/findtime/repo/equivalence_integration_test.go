//go:build integration_ch || integration_pg

package repo

import (
	"context"
	"math"
	"testing"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/predicate"
	"findtime/internal/core/pyramid"

	"github.com/google/go-cmp/cmp"
)

var (
	synthFrom = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	synthTo   = time.Date(2020, time.March, 31, 23, 0, 0, 0, time.UTC)
	synthBox  = pyramid.Box{MinLat: 40, MaxLat: 40.25, MinLon: -74, MaxLon: -73.75}
)

// synthRows is a two-cell grid with a daily cycle, a seasonal drift, and a hole
// on 2020-02-10 from 03:00 to 05:00 where neither cell reports
func synthRows() []HourlyRow {
	hole := calendar.MustRange(time.Date(2020, 2, 10, 3, 0, 0, 0, time.UTC), time.Date(2020, 2, 10, 5, 0, 0, 0, time.UTC))
	var out []HourlyRow
	for ts := synthFrom; !ts.After(synthTo); ts = ts.Add(time.Hour) {
		if hole.Contains(ts) {
			continue
		}
		h := float64(ts.Sub(synthFrom) / time.Hour)
		base := 270 + 10*math.Sin(2*math.Pi*h/24) + h/200
		for i, lat := range []float64{40, 40.25} {
			out = append(out, HourlyRow{Variable: "t2m", TS: ts, Lat: lat, Lon: -74, Value: base + float64(i)})
		}
	}
	return out
}

func seed(t *testing.T, ctx context.Context, r Repo) {
	t.Helper()
	if err := r.LoadHourly(ctx, synthRows()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Rollup(ctx, "t2m", calendar.MustRange(synthFrom, synthTo)); err != nil {
		t.Fatalf("rollup: %v", err)
	}
}

// bruteForce evaluates op hour by hour from the baseline alone
func bruteForce(t *testing.T, ctx context.Context, r Repo, q pyramid.Query) []bool {
	t.Helper()
	samples, err := r.Series(ctx, pyramid.BaselineRequest{
		Target: q.Target, Range: q.Range, Granularity: calendar.Hour, Aggregation: q.Aggregation,
	})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	out := make([]bool, q.Range.Hours())
	for _, s := range samples {
		if i, ok := q.Range.Index(s.At); ok {
			out[i] = q.Op.Holds(s.Value, s.Valid, q.Threshold)
		}
	}
	return out
}

func checkEquivalence(t *testing.T, r Repo) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	seed(t, ctx, r)

	eng := pyramid.New(r, r, pyramid.Config{Parallelism: 4, Finest: calendar.Day})
	rng := calendar.MustRange(time.Date(2020, 1, 15, 6, 0, 0, 0, time.UTC), time.Date(2020, 3, 20, 17, 0, 0, 0, time.UTC))
	for _, op := range []string{">", ">=", "<", "<=", "==", "!="} {
		for _, agg := range []pyramid.Reducer{pyramid.Mean, pyramid.Max} {
			for _, th := range []float64{255, 270.5, 290} {
				o, _ := predicate.ParseOperator(op)
				q := pyramid.Query{
					Target:      pyramid.Target{Variable: "t2m", Box: synthBox},
					Range:       rng,
					Op:          o,
					Threshold:   th,
					Resolution:  calendar.Hour,
					Aggregation: agg,
				}
				got, stats, err := eng.Run(ctx, q)
				if err != nil {
					t.Fatalf("%s %s %v: %v", op, agg, th, err)
				}
				want := bruteForce(t, ctx, r, q)
				if diff := cmp.Diff(want, got.Values); diff != "" {
					t.Fatalf("%s %s %v differs from baseline (-want +got):\n%s", op, agg, th, diff)
				}
				if o.Prunable() && (th == 255 || th == 290) && stats.Resolved() == 0 {
					t.Fatalf("%s %v: expected blocks to be pruned", op, th)
				}
			}
		}
	}

	// the hole keeps its day unresolved and reads as false
	hole := time.Date(2020, 2, 10, 4, 0, 0, 0, time.UTC)
	q := pyramid.Query{
		Target: pyramid.Target{Variable: "t2m", Box: synthBox}, Range: rng,
		Op: predicate.Greater, Threshold: 0, Resolution: calendar.Hour,
	}
	got, _, err := eng.Run(ctx, q)
	if err != nil {
		t.Fatalf("hole run: %v", err)
	}
	i, _ := rng.Index(hole)
	if got.Values[i] {
		t.Fatalf("missing hour must be false")
	}
	if got.CountTrue() != rng.Hours()-3 {
		t.Fatalf("true hours = %d, want %d", got.CountTrue(), rng.Hours()-3)
	}
}

// checkStable compares each rolled up daily statistic against the baseline day
// under the same reducer for the first two days, where both cells report every hour
func checkStable(t *testing.T, ctx context.Context, r Repo) {
	t.Helper()
	target := pyramid.Target{Variable: "t2m", Box: synthBox}
	for _, red := range []pyramid.Reducer{pyramid.Mean, pyramid.Min, pyramid.Max} {
		bounds, err := r.Aggregate(ctx, pyramid.AggregateRequest{
			Target:      target,
			Granularity: calendar.Day,
			Spans:       []calendar.Span{{Granularity: calendar.Day, Start: synthFrom, Count: 2}},
			Reducer:     red,
		})
		if err != nil {
			t.Fatalf("%s aggregate: %v", red, err)
		}
		exact, err := r.Series(ctx, pyramid.BaselineRequest{
			Target:      target,
			Range:       calendar.MustRange(synthFrom, synthFrom.Add(47*time.Hour)),
			Granularity: calendar.Day,
			Aggregation: red,
		})
		if err != nil {
			t.Fatalf("%s baseline: %v", red, err)
		}
		if len(bounds) != 2 || len(exact) != 2 {
			t.Fatalf("%s: got %d bounds and %d exact days", red, len(bounds), len(exact))
		}
		for i := range bounds {
			if !bounds[i].Valid || math.Abs(bounds[i].Value-exact[i].Value) > 1e-9 {
				t.Fatalf("%s day %d: rollup %+v vs exact %+v", red, i, bounds[i], exact[i])
			}
		}
	}
}
