// Package service turns find-time requests into engine queries
package service

import (
	"context"
	"strings"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/predicate"
	"findtime/internal/core/pyramid"
	perr "findtime/internal/platform/errors"
	"findtime/internal/platform/logger"
	"findtime/internal/platform/metrics"
	"findtime/internal/services/findtime/domain"

	"github.com/google/uuid"
)

// Service defines the find-time service contract
type Service interface {
	domain.ServicePort
}

// Runner evaluates one engine query
type Runner interface {
	Run(ctx context.Context, q pyramid.Query) (pyramid.Series, pyramid.Stats, error)
}

// Config for the find-time service
type Config struct {
	// Aggregation is used when a request leaves it empty
	Aggregation pyramid.Reducer
	// MaxHours caps the requested range; zero means no cap
	MaxHours int
}

// Svc implements Service on top of the pruning engine
type Svc struct {
	Engine  Runner
	Metrics *metrics.Metrics
	Cfg     Config

	newID func() string
}

// New constructs the service; a nil engine answers every query with Unavailable
func New(engine Runner, m *metrics.Metrics, cfg Config) *Svc {
	return &Svc{Engine: engine, Metrics: m, Cfg: cfg, newID: uuid.NewString}
}

var _ Service = (*Svc)(nil)

// Query maps a request onto an engine query with every field checked
func (s *Svc) Query(in domain.FindTimeInput) (pyramid.Query, error) {
	variable, err := domain.ShortName(in.Variable)
	if err != nil {
		return pyramid.Query{}, err
	}
	start, err := calendar.ParseTime(in.Start)
	if err != nil {
		return pyramid.Query{}, perr.WithField(err, "start")
	}
	end, err := calendar.ParseTime(in.End)
	if err != nil {
		return pyramid.Query{}, perr.WithField(err, "end")
	}
	r, err := calendar.NewRange(start, end)
	if err != nil {
		return pyramid.Query{}, fieldOr(err, "start")
	}
	if s.Cfg.MaxHours > 0 && r.Hours() > s.Cfg.MaxHours {
		return pyramid.Query{}, perr.WithField(perr.InvalidArgf("range spans %d hours, limit is %d", r.Hours(), s.Cfg.MaxHours), "end")
	}
	op, err := predicate.ParseOperator(in.Predicate)
	if err != nil {
		return pyramid.Query{}, perr.WithField(err, "predicate")
	}
	if in.Value == nil {
		return pyramid.Query{}, perr.WithField(perr.InvalidArgf("value is required"), "value")
	}
	res := calendar.Hour
	if strings.TrimSpace(in.TemporalResolution) != "" {
		if res, err = calendar.ParseGranularity(in.TemporalResolution); err != nil {
			return pyramid.Query{}, perr.WithField(err, "temporal_resolution")
		}
	}
	agg := s.Cfg.Aggregation
	if strings.TrimSpace(in.Aggregation) != "" {
		if agg, err = pyramid.ParseReducer(in.Aggregation); err != nil {
			return pyramid.Query{}, perr.WithField(err, "aggregation")
		}
	}
	box := pyramid.Box{MinLat: in.MinLat, MaxLat: in.MaxLat, MinLon: in.MinLon, MaxLon: in.MaxLon}
	if err := box.Validate(); err != nil {
		return pyramid.Query{}, err
	}
	return pyramid.Query{
		Target:      pyramid.Target{Variable: variable, Box: box},
		Range:       r,
		Op:          op,
		Threshold:   *in.Value,
		Resolution:  res,
		Aggregation: agg,
	}, nil
}

// fieldOr names field unless err already names one
func fieldOr(err error, field string) error {
	if e, ok := perr.As(err); ok && e.Field() != "" {
		return err
	}
	return perr.WithField(err, field)
}

// FindTime validates in, runs it and shapes the result
func (s *Svc) FindTime(ctx context.Context, in domain.FindTimeInput) (domain.FindTimeResult, error) {
	if s.Engine == nil {
		return domain.FindTimeResult{}, perr.Unavailablef("no storage backend configured")
	}
	q, err := s.Query(in)
	if err != nil {
		return domain.FindTimeResult{}, err
	}

	qid := s.newID()
	ctx = logger.WithQuery(ctx, qid)
	began := time.Now()
	series, stats, err := s.Engine.Run(ctx, q)
	if err != nil {
		s.Metrics.Query(q.Op.String(), q.Resolution.String(), "error", time.Since(began))
		logger.C(ctx).Warn().Err(err).Str("variable", q.Target.Variable).Msg("find-time failed")
		return domain.FindTimeResult{}, err
	}
	s.observe(q, stats)

	return Result(qid, q.Target.Variable, series, stats, in.IncludePoints), nil
}

func (s *Svc) observe(q pyramid.Query, stats pyramid.Stats) {
	s.Metrics.Query(q.Op.String(), q.Resolution.String(), "ok", stats.Duration)
	for _, l := range stats.Levels {
		s.Metrics.Level(l.Granularity.String(), l.True, l.False, l.Refined)
	}
	s.Metrics.Calls(stats.OracleCalls, stats.BaselineCalls, stats.BaselineHours)
}

// Variables lists the supported variables
func (s *Svc) Variables(context.Context) ([]domain.Variable, error) {
	return domain.Variables(), nil
}

// Result shapes an engine series into the response payload
func Result(qid, variable string, series pyramid.Series, stats pyramid.Stats, points bool) domain.FindTimeResult {
	out := domain.FindTimeResult{
		QueryID:    qid,
		Variable:   variable,
		Resolution: series.Granularity.String(),
		Start:      series.Start,
		Total:      series.Len(),
		TrueCount:  series.CountTrue(),
		Runs:       make([]domain.Run, 0),
		Stats: domain.Stats{
			Pruned:        stats.Pruned,
			Resolved:      stats.Resolved(),
			OracleCalls:   stats.OracleCalls,
			BaselineCalls: stats.BaselineCalls,
			BaselineHours: stats.BaselineHours,
			DurationMs:    float64(stats.Duration.Microseconds()) / 1000,
		},
	}
	for _, r := range series.Runs() {
		out.Runs = append(out.Runs, domain.Run{Start: r.Start, End: r.End, Count: r.Count, Value: r.Value})
	}
	if points {
		out.Points = make([]domain.Point, 0, series.Len())
		for _, p := range series.Points() {
			out.Points = append(out.Points, domain.Point{T: p.At, V: p.Value})
		}
	}
	for _, l := range stats.Levels {
		out.Stats.Levels = append(out.Stats.Levels, domain.LevelStats{
			Granularity: l.Granularity.String(),
			Pending:     l.Pending,
			Spans:       l.Spans,
			True:        l.True,
			False:       l.False,
			Refined:     l.Refined,
		})
	}
	return out
}
