package repo

import (
	"context"
	"fmt"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/pyramid"
	perr "findtime/internal/platform/errors"
	"findtime/internal/platform/store"
)

// ClickHouse answers both collaborators from grid_daily and grid_hourly
type ClickHouse struct {
	db store.Clickhouse
}

// NewClickHouse binds the repo to an open clickhouse seam
func NewClickHouse(db store.Clickhouse) *ClickHouse { return &ClickHouse{db: db} }

var _ Repo = (*ClickHouse)(nil)

func chBucket(g calendar.Granularity, col string) string {
	switch g {
	case calendar.Year:
		return "toStartOfYear(" + col + ")"
	case calendar.Month:
		return "toStartOfMonth(" + col + ")"
	case calendar.Day:
		return "toStartOfDay(" + col + ")"
	}
	return "toStartOfHour(" + col + ")"
}

func chReducer(r pyramid.Reducer, daily bool) string {
	switch {
	case r == pyramid.Min && daily:
		return "min(vmin)"
	case r == pyramid.Max && daily:
		return "max(vmax)"
	case daily:
		return "sum(vsum) / sum(vcount)"
	case r == pyramid.Min:
		return "min(value)"
	case r == pyramid.Max:
		return "max(value)"
	}
	return "avg(value)"
}

// Aggregate reads one bound per block, one statement per span
func (c *ClickHouse) Aggregate(ctx context.Context, req pyramid.AggregateRequest) ([]pyramid.Sample, error) {
	if err := checkOracle(req); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(`
SELECT toDateTime(%s, 'UTC') AS block, toFloat64(%s) AS v, uniqExactIf(day, hours = 24) AS full_days
FROM grid_daily FINAL
WHERE variable = ? AND lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?
  AND day >= toDate(?) AND day < toDate(?)
GROUP BY block
ORDER BY block`, chBucket(req.Granularity, "day"), chReducer(req.Reducer, true))

	box := req.Target.Box
	var out []pyramid.Sample
	for _, sp := range req.Spans {
		samples := spanSamples(sp)
		err := store.Each(ctx, c.db, func(r store.Row) error {
			var row blockRow
			var full uint64
			if err := r.Scan(&row.start, &row.value, &full); err != nil {
				return err
			}
			row.fullDays = int64(full)
			return place(sp, samples, row)
		}, sql, req.Target.Variable, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
			sp.Start, sp.Last().Next().Start)
		if err != nil {
			return nil, wrapCH(err, "oracle %s %s", req.Granularity, sp)
		}
		out = append(out, samples...)
	}
	return out, nil
}

// Series computes the exact series: the reducer over the box per hour, then
// the same reducer over those hourly values per block; hours without rows are omitted
func (c *ClickHouse) Series(ctx context.Context, req pyramid.BaselineRequest) ([]pyramid.Sample, error) {
	sql := fmt.Sprintf(`
SELECT toDateTime(%s, 'UTC') AS t, %s AS v
FROM (
  SELECT ts, toFloat64(%s) AS v
  FROM grid_hourly
  WHERE variable = ? AND lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?
    AND ts >= ? AND ts < ?
  GROUP BY ts
)
GROUP BY t
ORDER BY t`, chBucket(req.Granularity, "ts"), temporalReducer(req.Aggregation), chReducer(req.Aggregation, false))

	box := req.Target.Box
	out := make([]pyramid.Sample, 0, req.Range.Hours())
	err := store.Each(ctx, c.db, func(r store.Row) error {
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
		return nil, wrapCH(err, "baseline %s", req.Range)
	}
	return out, nil
}

// Rollup rewrites the daily bounds of every day touching r
func (c *ClickHouse) Rollup(ctx context.Context, variable string, r calendar.TimeRange) error {
	from := calendar.Day.Truncate(r.Start)
	to := calendar.Day.Add(calendar.Day.Truncate(r.End), 1)
	err := c.db.Exec(ctx, `
INSERT INTO grid_daily (variable, day, lat, lon, vmin, vmax, vsum, vcount, hours)
SELECT variable, toDate(ts) AS day, lat, lon,
       min(value), max(value), sum(value), count(), toUInt8(uniqExact(toStartOfHour(ts)))
FROM grid_hourly
WHERE variable = ? AND ts >= ? AND ts < ?
GROUP BY variable, day, lat, lon`, variable, from, to)
	return wrapCH(err, "rollup %s %s", variable, r)
}

// LoadHourly appends rows with a single batch
func (c *ClickHouse) LoadHourly(ctx context.Context, rows []HourlyRow) error {
	batch := make([][]any, len(rows))
	for i, r := range rows {
		batch[i] = []any{r.Variable, r.TS.UTC(), r.Lat, r.Lon, r.Value}
	}
	return wrapCH(c.db.Insert(ctx, "grid_hourly", batch), "load %d hourly rows", len(rows))
}

// Coverage reads the rolled-up day range of variable
func (c *ClickHouse) Coverage(ctx context.Context, variable string) (calendar.TimeRange, error) {
	r, err := store.One(ctx, c.db, func(row store.Row) (calendar.TimeRange, error) {
		var n uint64
		var first, last time.Time
		if err := row.Scan(&n, &first, &last); err != nil {
			return calendar.TimeRange{}, err
		}
		return coverage(int64(n), first, last)
	}, `SELECT count(), min(day), max(day) FROM grid_daily FINAL WHERE variable = ?`, variable)
	return r, wrapCH(err, "coverage %s", variable)
}

func wrapCH(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.FromClickHousef(err, format, a...)
}
