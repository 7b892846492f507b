// Package pyramid evaluates an hourly predicate over a multi-year range by
// pruning calendar blocks with their min/max bounds, coarsest first, and
// falling back to exact hourly evaluation only for what stays undecided
package pyramid

import (
	"context"
	"strings"
	"time"

	"findtime/internal/core/calendar"
	perr "findtime/internal/platform/errors"
)

// Box is an inclusive lat/lon rectangle in degrees
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Validate checks ordering and the geographic limits
func (b Box) Validate() error {
	switch {
	case b.MinLat < -90 || b.MaxLat > 90:
		return perr.WithField(perr.InvalidArgf("latitude must be within [-90, 90]"), "min_lat")
	case b.MinLon < -180 || b.MaxLon > 180:
		return perr.WithField(perr.InvalidArgf("longitude must be within [-180, 180]"), "min_lon")
	case b.MinLat > b.MaxLat:
		return perr.WithField(perr.InvalidArgf("min_lat %v exceeds max_lat %v", b.MinLat, b.MaxLat), "min_lat")
	case b.MinLon > b.MaxLon:
		return perr.WithField(perr.InvalidArgf("min_lon %v exceeds max_lon %v", b.MinLon, b.MaxLon), "min_lon")
	}
	return nil
}

// Target is the variable and spatial box a query is about
type Target struct {
	Variable string
	Box      Box
}

// Reducer collapses many values into one
type Reducer uint8

const (
	// Mean is the arithmetic mean over non-missing values
	Mean Reducer = iota
	// Min is the smallest non-missing value
	Min
	// Max is the largest non-missing value
	Max
)

func (r Reducer) String() string {
	switch r {
	case Min:
		return "min"
	case Max:
		return "max"
	case Mean:
		return "mean"
	}
	return "unknown"
}

// ParseReducer accepts mean, min or max; empty means mean
func ParseReducer(s string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean":
		return Mean, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	}
	return Mean, perr.InvalidArgf("unknown aggregation %q, want mean, min or max", s)
}

// Sample is one value of a series
// At is any instant inside the block it describes; adapters report the
// block's last hourly tick
type Sample struct {
	At    time.Time
	Value float64
	Valid bool
}

// AggregateRequest asks for one reduced value per block of every span
type AggregateRequest struct {
	Target      Target
	Granularity calendar.Granularity
	Spans       []calendar.Span
	Reducer     Reducer
}

// Oracle supplies precomputed block statistics
// it must return exactly one sample per requested block, chronologically
type Oracle interface {
	Aggregate(ctx context.Context, req AggregateRequest) ([]Sample, error)
}

// BaselineRequest asks for the exact spatially aggregated series over Range,
// one sample per Granularity block; coarse blocks only reduce hours inside Range
type BaselineRequest struct {
	Target      Target
	Range       calendar.TimeRange
	Granularity calendar.Granularity
	Aggregation Reducer
}

// Baseline computes exact values directly from the hourly grid
// hours without data may be omitted or returned with Valid=false
type Baseline interface {
	Series(ctx context.Context, req BaselineRequest) ([]Sample, error)
}

// OracleFunc adapts a function to Oracle
type OracleFunc func(ctx context.Context, req AggregateRequest) ([]Sample, error)

// Aggregate calls f
func (f OracleFunc) Aggregate(ctx context.Context, req AggregateRequest) ([]Sample, error) {
	return f(ctx, req)
}

// BaselineFunc adapts a function to Baseline
type BaselineFunc func(ctx context.Context, req BaselineRequest) ([]Sample, error)

// Series calls f
func (f BaselineFunc) Series(ctx context.Context, req BaselineRequest) ([]Sample, error) {
	return f(ctx, req)
}
