package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/pyramid"
	perr "findtime/internal/platform/errors"
	"findtime/internal/platform/store"
)

// Postgres answers both collaborators with date_trunc over the same tables
type Postgres struct {
	db store.TxRunner
}

// NewPostgres binds the repo to an open sql seam
func NewPostgres(db store.TxRunner) *Postgres { return &Postgres{db: db} }

var _ Repo = (*Postgres)(nil)

// pgBucket truncates a UTC wall-clock timestamp expression and hands back a timestamptz
func pgBucket(g calendar.Granularity, local string) string {
	return fmt.Sprintf("date_trunc('%s', %s) AT TIME ZONE 'UTC'", g, local)
}

func pgReducer(r pyramid.Reducer, daily bool) string {
	switch {
	case r == pyramid.Min && daily:
		return "min(vmin)"
	case r == pyramid.Max && daily:
		return "max(vmax)"
	case daily:
		return "sum(vsum) / NULLIF(sum(vcount), 0)"
	case r == pyramid.Min:
		return "min(value)"
	case r == pyramid.Max:
		return "max(value)"
	}
	return "avg(value)"
}

// Aggregate reads one bound per block, one statement per span
func (p *Postgres) Aggregate(ctx context.Context, req pyramid.AggregateRequest) ([]pyramid.Sample, error) {
	if err := checkOracle(req); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(`
SELECT %s AS block, %s AS v, count(DISTINCT day) FILTER (WHERE hours = 24) AS full_days
FROM grid_daily
WHERE variable = $1 AND lat BETWEEN $2 AND $3 AND lon BETWEEN $4 AND $5
  AND day >= $6::date AND day < $7::date
GROUP BY 1
ORDER BY 1`, pgBucket(req.Granularity, "day::timestamp"), pgReducer(req.Reducer, true))

	box := req.Target.Box
	var out []pyramid.Sample
	for _, sp := range req.Spans {
		samples := spanSamples(sp)
		err := store.Each(ctx, p.db, func(r store.Row) error {
			var row blockRow
			var v *float64
			if err := r.Scan(&row.start, &v, &row.fullDays); err != nil {
				return err
			}
			if v == nil {
				return nil
			}
			row.value = *v
			return place(sp, samples, row)
		}, sql, req.Target.Variable, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
			sp.Start.Format(time.DateOnly), sp.Last().Next().Start.Format(time.DateOnly))
		if err != nil {
			return nil, wrapPG(err, "oracle %s %s", req.Granularity, sp)
		}
		out = append(out, samples...)
	}
	return out, nil
}

// Series mirrors ClickHouse.Series
func (p *Postgres) Series(ctx context.Context, req pyramid.BaselineRequest) ([]pyramid.Sample, error) {
	sql := fmt.Sprintf(`
SELECT %s AS t, %s AS v
FROM (
  SELECT ts, %s AS v
  FROM grid_hourly
  WHERE variable = $1 AND lat BETWEEN $2 AND $3 AND lon BETWEEN $4 AND $5
    AND ts >= $6 AND ts < $7
  GROUP BY ts
) hourly
GROUP BY 1
ORDER BY 1`, pgBucket(req.Granularity, "ts AT TIME ZONE 'UTC'"), temporalReducer(req.Aggregation), pgReducer(req.Aggregation, false))

	box := req.Target.Box
	out := make([]pyramid.Sample, 0, req.Range.Hours())
	err := store.Each(ctx, p.db, func(r store.Row) error {
		var s pyramid.Sample
		if err := r.Scan(&s.At, &s.Value); err != nil {
			return err
		}
		s.At = s.At.UTC()
		s.Valid = true
		out = append(out, s)
		return nil
	}, sql, req.Target.Variable, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
		req.Range.Start, exclusiveEnd(req.Range))
	if err != nil {
		return nil, wrapPG(err, "baseline %s", req.Range)
	}
	return out, nil
}

// Rollup upserts the daily bounds of every day touching r in one transaction
func (p *Postgres) Rollup(ctx context.Context, variable string, r calendar.TimeRange) error {
	from := calendar.Day.Truncate(r.Start)
	to := calendar.Day.Add(calendar.Day.Truncate(r.End), 1)
	err := p.db.Tx(ctx, func(q store.RowQuerier) error {
		_, err := q.Exec(ctx, `
INSERT INTO grid_daily (variable, day, lat, lon, vmin, vmax, vsum, vcount, hours)
SELECT variable, (ts AT TIME ZONE 'UTC')::date AS day, lat, lon,
       min(value), max(value), sum(value), count(*), count(DISTINCT date_trunc('hour', ts))
FROM grid_hourly
WHERE variable = $1 AND ts >= $2 AND ts < $3
GROUP BY variable, day, lat, lon
ON CONFLICT (variable, day, lat, lon) DO UPDATE SET
  vmin = EXCLUDED.vmin, vmax = EXCLUDED.vmax, vsum = EXCLUDED.vsum,
  vcount = EXCLUDED.vcount, hours = EXCLUDED.hours`, variable, from, to)
		return err
	})
	return wrapPG(err, "rollup %s %s", variable, r)
}

// LoadHourly inserts rows with one multi-row statement per chunk
func (p *Postgres) LoadHourly(ctx context.Context, rows []HourlyRow) error {
	const chunk = 1000
	err := p.db.Tx(ctx, func(q store.RowQuerier) error {
		for lo := 0; lo < len(rows); lo += chunk {
			part := rows[lo:min(lo+chunk, len(rows))]
			var b strings.Builder
			b.WriteString("INSERT INTO grid_hourly (variable, ts, lat, lon, value) VALUES ")
			args := make([]any, 0, len(part)*5)
			for i, r := range part {
				if i > 0 {
					b.WriteString(", ")
				}
				n := i * 5
				fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
				args = append(args, r.Variable, r.TS.UTC(), r.Lat, r.Lon, r.Value)
			}
			if _, err := q.Exec(ctx, b.String(), args...); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapPG(err, "load %d hourly rows", len(rows))
}

// Coverage reads the rolled-up day range of variable
func (p *Postgres) Coverage(ctx context.Context, variable string) (calendar.TimeRange, error) {
	r, err := store.One(ctx, p.db, func(row store.Row) (calendar.TimeRange, error) {
		var n int64
		var first, last time.Time
		if err := row.Scan(&n, &first, &last); err != nil {
			return calendar.TimeRange{}, err
		}
		return coverage(n, first, last)
	}, `
SELECT count(*), coalesce(min(day), DATE '1970-01-01'), coalesce(max(day), DATE '1970-01-01')
FROM grid_daily WHERE variable = $1`, variable)
	return r, wrapPG(err, "coverage %s", variable)
}

func wrapPG(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.FromPostgresf(err, format, a...)
}
