// Package domain holds DTOs and ports for the find-time service
package domain

import "time"

// FindTimeInput is the find-time request body
// times accept RFC3339, "YYYY-MM-DD HH:MM:SS", "YYYY-MM-DDTHH" or a bare date, all UTC
type FindTimeInput struct {
	Variable           string   `json:"variable" validate:"required,max=64" example:"2m_temperature"`
	Start              string   `json:"start" validate:"required" example:"2020-01-01 00:00:00"`
	End                string   `json:"end" validate:"required" example:"2023-12-31 23:00:00"`
	MinLat             float64  `json:"min_lat" validate:"gte=-90,lte=90" example:"1"`
	MaxLat             float64  `json:"max_lat" validate:"gte=-90,lte=90,gtefield=MinLat" example:"9"`
	MinLon             float64  `json:"min_lon" validate:"gte=-180,lte=180" example:"6"`
	MaxLon             float64  `json:"max_lon" validate:"gte=-180,lte=180,gtefield=MinLon" example:"14"`
	TemporalResolution string   `json:"temporal_resolution,omitempty" validate:"omitempty,oneof=hour day month year" example:"hour"`
	Aggregation        string   `json:"aggregation,omitempty" validate:"omitempty,oneof=mean min max" example:"max"`
	Predicate          string   `json:"predicate" validate:"required,max=2" example:">"`
	Value              *float64 `json:"value" validate:"required" example:"300"`
	IncludePoints      bool     `json:"include_points,omitempty"`
}

// Run is a maximal stretch of equal values; End is the start of its last block
type Run struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
	Value bool      `json:"value"`
}

// Point is one block of the result series
type Point struct {
	T time.Time `json:"t"`
	V bool      `json:"v"`
}

// LevelStats is the pruning outcome at one granularity
type LevelStats struct {
	Granularity string `json:"granularity"`
	Pending     int    `json:"pending"`
	Spans       int    `json:"spans"`
	True        int    `json:"true"`
	False       int    `json:"false"`
	Refined     int    `json:"refined"`
}

// Stats is the decision trace of one query
type Stats struct {
	Pruned        bool         `json:"pruned"`
	Levels        []LevelStats `json:"levels,omitempty"`
	Resolved      int          `json:"resolved_blocks"`
	OracleCalls   int          `json:"oracle_calls"`
	BaselineCalls int          `json:"baseline_calls"`
	BaselineHours int          `json:"baseline_hours"`
	DurationMs    float64      `json:"duration_ms"`
}

// FindTimeResult is the find-time response payload
type FindTimeResult struct {
	QueryID    string    `json:"query_id"`
	Variable   string    `json:"variable"`
	Resolution string    `json:"resolution"`
	Start      time.Time `json:"start"`
	Total      int       `json:"total"`
	TrueCount  int       `json:"true_count"`
	Runs       []Run     `json:"runs"`
	Points     []Point   `json:"points,omitempty"`
	Stats      Stats     `json:"stats"`
}

// Variable describes one supported variable
type Variable struct {
	Name  string `json:"name"`
	Short string `json:"short"`
	Unit  string `json:"unit"`
}
