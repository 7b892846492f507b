// Package repo implements the bounds oracle and the exact baseline over the
// hourly grid tables, for ClickHouse and Postgres, plus a Redis bounds cache
package repo

import (
	"context"
	"math"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/pyramid"
	perr "findtime/internal/platform/errors"
)

// Repo is a storage backend able to answer both engine collaborators
type Repo interface {
	pyramid.Oracle
	pyramid.Baseline
	// Rollup recomputes grid_daily from grid_hourly for the days touching r
	Rollup(ctx context.Context, variable string, r calendar.TimeRange) error
	// LoadHourly appends raw grid cells
	LoadHourly(ctx context.Context, rows []HourlyRow) error
	// Migrate creates the grid tables when missing
	Migrate(ctx context.Context) error
	// Coverage spans the first to last rolled-up day of variable; perr.ErrNotFound when none
	Coverage(ctx context.Context, variable string) (calendar.TimeRange, error)
}

// HourlyRow is one grid cell value at one hour; absent rows are missing data
type HourlyRow struct {
	Variable string
	TS       time.Time
	Lat      float64
	Lon      float64
	Value    float64
}

// blockRow is one aggregated block as read from grid_daily
type blockRow struct {
	start    time.Time
	value    float64
	fullDays int64
}

// spanSamples lays out one invalid sample per block of sp, stamped with the block's last tick
func spanSamples(sp calendar.Span) []pyramid.Sample {
	out := make([]pyramid.Sample, sp.Count)
	for i, b := range sp.Blocks() {
		out[i] = pyramid.Sample{At: b.End()}
	}
	return out
}

// place sets the sample of the block starting at row.start
// a block is valid only if every one of its days had a cell reporting all 24 hours
func place(sp calendar.Span, samples []pyramid.Sample, row blockRow) error {
	row.start = row.start.UTC()
	i := sp.Granularity.Steps(sp.Start, row.start)
	if i < 0 || i >= len(samples) {
		return perr.Upstreamf("block %s outside span %s", row.start.Format(time.DateOnly), sp)
	}
	b := calendar.BlockAt(sp.Granularity, row.start)
	days := int64(b.Hours() / 24)
	samples[i].Value = row.value
	samples[i].Valid = row.fullDays == days && !math.IsNaN(row.value) && !math.IsInf(row.value, 0)
	return nil
}

// checkOracle rejects requests grid_daily cannot answer
func checkOracle(req pyramid.AggregateRequest) error {
	if req.Granularity == calendar.Hour || !req.Granularity.Valid() {
		return perr.InvalidArgf("bounds are stored per day and coarser, not per %s", req.Granularity)
	}
	return nil
}

// temporalReducer applies the query's reducer across the hourly values of one block
// at hour resolution every group holds a single hour and all three agree
func temporalReducer(r pyramid.Reducer) string {
	switch r {
	case pyramid.Min:
		return "min(v)"
	case pyramid.Max:
		return "max(v)"
	}
	return "avg(v)"
}

// exclusiveEnd is the first instant after the last hour of r
func exclusiveEnd(r calendar.TimeRange) time.Time { return r.End.Add(time.Hour) }

// coverage turns a day count and its first and last day into hours
func coverage(days int64, first, last time.Time) (calendar.TimeRange, error) {
	if days == 0 {
		return calendar.TimeRange{}, perr.ErrNotFound
	}
	return calendar.NewRange(calendar.Day.Truncate(first), calendar.BlockAt(calendar.Day, last).End())
}
