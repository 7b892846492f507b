package pyramid

import (
	"context"
	"math"
	"strings"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/predicate"
	perr "findtime/internal/platform/errors"
	"findtime/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Config tunes the engine
type Config struct {
	// Parallelism bounds concurrent oracle and baseline calls within one level
	Parallelism int
	// Finest is the last granularity pruned with bounds; Hour is treated as Day
	Finest calendar.Granularity
}

// DefaultConfig prunes year, month and day sequentially
func DefaultConfig() Config {
	return Config{Parallelism: 1, Finest: calendar.Day}
}

// Engine runs pruned predicate queries against an oracle and a baseline
type Engine struct {
	oracle   Oracle
	baseline Baseline
	cfg      Config
}

// New returns an engine; both collaborators are required
func New(oracle Oracle, baseline Baseline, cfg Config) *Engine {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if !cfg.Finest.Valid() || cfg.Finest == calendar.Hour {
		cfg.Finest = calendar.Day
	}
	return &Engine{oracle: oracle, baseline: baseline, cfg: cfg}
}

// Query is one find-time request
type Query struct {
	Target      Target
	Range       calendar.TimeRange
	Op          predicate.Operator
	Threshold   float64
	Resolution  calendar.Granularity
	Aggregation Reducer
}

// normalize validates q before any collaborator is called
func (q Query) normalize() (Query, error) {
	if !q.Op.Valid() {
		return q, perr.WithField(perr.InvalidArgf("unsupported predicate %s", q.Op), "predicate")
	}
	if math.IsNaN(q.Threshold) || math.IsInf(q.Threshold, 0) {
		return q, perr.WithField(perr.InvalidArgf("threshold must be a finite number"), "value")
	}
	if strings.TrimSpace(q.Target.Variable) == "" {
		return q, perr.WithField(perr.InvalidArgf("variable is required"), "variable")
	}
	if err := q.Target.Box.Validate(); err != nil {
		return q, err
	}
	if !q.Resolution.Valid() {
		return q, perr.WithField(perr.InvalidArgf("unknown temporal resolution %s", q.Resolution), "temporal_resolution")
	}
	if q.Aggregation > Max {
		return q, perr.WithField(perr.InvalidArgf("unknown aggregation %s", q.Aggregation), "aggregation")
	}
	r, err := calendar.NewRange(q.Range.Start, q.Range.End)
	if err != nil {
		return q, err
	}
	q.Range = r
	return q, nil
}

// Evaluation is the outcome of the pruning pass
// Resolved and Residual together tile Range exactly once
type Evaluation struct {
	Range    calendar.TimeRange
	Resolved []Resolution
	Residual []calendar.TimeRange
	Stats    Stats
}

// Prune walks year, month and day levels and decides what bounds alone can decide
// != and every other non-prunable operator leave the whole range residual
func (e *Engine) Prune(ctx context.Context, q Query) (Evaluation, error) {
	q, err := q.normalize()
	if err != nil {
		return Evaluation{}, err
	}
	return e.prune(ctx, q)
}

func (e *Engine) prune(ctx context.Context, q Query) (Evaluation, error) {
	ev := Evaluation{Range: q.Range}
	if !q.Op.Prunable() {
		ev.Residual = []calendar.TimeRange{q.Range}
		return ev, nil
	}
	ev.Stats.Pruned = true

	d, err := calendar.Decompose(q.Range, e.cfg.Finest)
	if err != nil {
		return Evaluation{}, err
	}
	log := logger.C(ctx)

	var pending []calendar.Block
	var residual []calendar.TimeRange
	for _, g := range calendar.Levels[:e.cfg.Finest+1] {
		pending = append(pending, d.Level(g)...)
		if len(pending) == 0 {
			continue
		}
		calendar.SortBlocks(pending)

		bounds, spans, err := e.bounds(ctx, q, g, pending)
		if err != nil {
			return Evaluation{}, err
		}

		ls := LevelStats{Granularity: g, Pending: len(pending), Spans: spans}
		var next []calendar.Block
		for i, b := range pending {
			det := predicate.Prune(q.Op, bounds[i], q.Threshold)
			switch {
			case det.Resolved():
				ev.Resolved = append(ev.Resolved, Resolution{Block: b, Value: det.Value()})
				if det.Value() {
					ls.True++
				} else {
					ls.False++
				}
			case g == e.cfg.Finest:
				ls.Refined++
				residual = append(residual, b.Range())
			default:
				ls.Refined++
				next = append(next, b.Children()...)
			}
		}
		ev.Stats.Levels = append(ev.Stats.Levels, ls)
		ev.Stats.OracleCalls += 2 * spans

		log.Debug().
			Str("granularity", g.String()).
			Int("pending", ls.Pending).
			Int("spans", ls.Spans).
			Int("true", ls.True).
			Int("false", ls.False).
			Int("refined", ls.Refined).
			Msg("level evaluated")

		pending = next
	}

	for _, b := range d.Level(calendar.Hour) {
		residual = append(residual, b.Range())
	}
	ev.Residual = calendar.MergeRanges(residual)
	return ev, nil
}

// bounds fetches min and max for every pending block, one oracle call per span and reducer
func (e *Engine) bounds(ctx context.Context, q Query, g calendar.Granularity, pending []calendar.Block) ([]predicate.Bounds, int, error) {
	spans := calendar.Compress(pending)
	lo := make([]float64, len(pending))
	hi := make([]float64, len(pending))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Parallelism)

	off := 0
	for _, sp := range spans {
		at := off
		off += sp.Count
		for _, red := range [...]Reducer{Min, Max} {
			dst := lo[at : at+sp.Count]
			if red == Max {
				dst = hi[at : at+sp.Count]
			}
			eg.Go(func() error {
				samples, err := e.oracle.Aggregate(ectx, AggregateRequest{
					Target:      q.Target,
					Granularity: g,
					Spans:       []calendar.Span{sp},
					Reducer:     red,
				})
				if err != nil {
					return upstream(err, "oracle %s over %s", red, sp)
				}
				return fillBounds(dst, sp, samples)
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]predicate.Bounds, len(pending))
	for i := range out {
		out[i] = predicate.Bounds{Min: lo[i], Max: hi[i]}
	}
	return out, len(spans), nil
}

// fillBounds places one oracle value per block of sp into dst; invalid values become NaN
func fillBounds(dst []float64, sp calendar.Span, samples []Sample) error {
	if len(samples) != sp.Count {
		return perr.Upstreamf("oracle returned %d values for %d %s blocks of %s", len(samples), sp.Count, sp.Granularity, sp)
	}
	seen := make([]bool, len(dst))
	for _, s := range samples {
		i := sp.Granularity.Steps(sp.Start, s.At)
		if i < 0 || i >= sp.Count {
			return perr.Upstreamf("oracle value at %s lies outside %s", s.At.Format(time.RFC3339), sp)
		}
		if seen[i] {
			return perr.Upstreamf("oracle returned block %s twice", calendar.BlockAt(sp.Granularity, s.At))
		}
		seen[i] = true
		dst[i] = math.NaN()
		if s.Valid {
			dst[i] = s.Value
		}
	}
	return nil
}

// Run evaluates q and returns its boolean series with the decision trace
// hourly queries are pruned; coarser resolutions go straight to the baseline
func (e *Engine) Run(ctx context.Context, q Query) (Series, Stats, error) {
	q, err := q.normalize()
	if err != nil {
		return Series{}, Stats{}, err
	}
	began := time.Now()

	var (
		series Series
		stats  Stats
	)
	if q.Resolution != calendar.Hour {
		series, stats, err = e.direct(ctx, q)
	} else {
		series, stats, err = e.pruned(ctx, q)
	}
	if err != nil {
		return Series{}, Stats{}, err
	}
	stats.Duration = time.Since(began)

	logger.C(ctx).Info().
		Str("variable", q.Target.Variable).
		Str("predicate", q.Op.String()).
		Float64("threshold", q.Threshold).
		Str("resolution", q.Resolution.String()).
		Int("values", series.Len()).
		Int("true", series.CountTrue()).
		Int("resolved_blocks", stats.Resolved()).
		Int("oracle_calls", stats.OracleCalls).
		Int("baseline_hours", stats.BaselineHours).
		Dur("took", stats.Duration).
		Msg("find-time evaluated")

	return series, stats, nil
}

func (e *Engine) pruned(ctx context.Context, q Query) (Series, Stats, error) {
	ev, err := e.prune(ctx, q)
	if err != nil {
		return Series{}, Stats{}, err
	}
	pieces, err := e.exact(ctx, q, ev.Residual)
	if err != nil {
		return Series{}, Stats{}, err
	}
	series, err := Assemble(q.Range, ev.Resolved, pieces)
	if err != nil {
		return Series{}, Stats{}, err
	}

	stats := ev.Stats
	stats.BaselineCalls = len(ev.Residual)
	for _, r := range ev.Residual {
		stats.BaselineHours += r.Hours()
	}
	return series, stats, nil
}

// exact evaluates every residual range with the baseline, in parallel within the bound
func (e *Engine) exact(ctx context.Context, q Query, residual []calendar.TimeRange) ([]Piece, error) {
	pieces := make([]Piece, len(residual))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Parallelism)
	for i, r := range residual {
		eg.Go(func() error {
			samples, err := e.baseline.Series(ectx, BaselineRequest{
				Target:      q.Target,
				Range:       r,
				Granularity: calendar.Hour,
				Aggregation: q.Aggregation,
			})
			if err != nil {
				return upstream(err, "baseline over %s", r)
			}
			vals, err := evalSamples(calendar.Hour, r.Start, r.Hours(), samples, q.Op, q.Threshold)
			if err != nil {
				return err
			}
			pieces[i] = Piece{Range: r, Values: vals}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return pieces, nil
}

// direct answers a coarse resolution with one baseline call over the whole range
// the series holds one value per block intersecting the range
func (e *Engine) direct(ctx context.Context, q Query) (Series, Stats, error) {
	g := q.Resolution
	first := g.Truncate(q.Range.Start)
	n := g.Steps(first, q.Range.End) + 1

	samples, err := e.baseline.Series(ctx, BaselineRequest{
		Target:      q.Target,
		Range:       q.Range,
		Granularity: g,
		Aggregation: q.Aggregation,
	})
	if err != nil {
		return Series{}, Stats{}, upstream(err, "baseline over %s", q.Range)
	}
	vals, err := evalSamples(g, first, n, samples, q.Op, q.Threshold)
	if err != nil {
		return Series{}, Stats{}, err
	}
	stats := Stats{BaselineCalls: 1, BaselineHours: q.Range.Hours()}
	return Series{Granularity: g, Start: first, Values: vals}, stats, nil
}

// upstream keeps classified errors and marks anything else as an upstream failure
func upstream(err error, format string, a ...any) error {
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.Wrapf(err, perr.ErrorCodeUpstream, format, a...)
}
