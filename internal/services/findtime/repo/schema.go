package repo

import (
	"context"
	"strings"

	perr "findtime/internal/platform/errors"
)

// Backend names a storage engine
type Backend string

const (
	// BackendClickHouse stores the grid in MergeTree tables
	BackendClickHouse Backend = "clickhouse"
	// BackendPostgres stores the grid in plain tables
	BackendPostgres Backend = "postgres"
)

// ParseBackend accepts clickhouse or postgres, case-insensitive
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendClickHouse, BackendPostgres:
		return b, nil
	}
	return "", perr.InvalidArgf("unknown backend %q, want clickhouse or postgres", s)
}

var chSchema = []string{
	`CREATE TABLE IF NOT EXISTS grid_hourly (
  variable LowCardinality(String),
  ts       DateTime('UTC'),
  lat      Float64,
  lon      Float64,
  value    Float64
) ENGINE = MergeTree
PARTITION BY (variable, toYear(ts))
ORDER BY (variable, ts, lat, lon)`,
	`CREATE TABLE IF NOT EXISTS grid_daily (
  variable LowCardinality(String),
  day      Date,
  lat      Float64,
  lon      Float64,
  vmin     Float64,
  vmax     Float64,
  vsum     Float64,
  vcount   UInt32,
  hours    UInt8
) ENGINE = ReplacingMergeTree
PARTITION BY (variable, toYear(day))
ORDER BY (variable, day, lat, lon)`,
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS grid_hourly (
  variable text             NOT NULL,
  ts       timestamptz      NOT NULL,
  lat      double precision NOT NULL,
  lon      double precision NOT NULL,
  value    double precision NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS grid_hourly_var_ts ON grid_hourly (variable, ts)`,
	`CREATE TABLE IF NOT EXISTS grid_daily (
  variable text             NOT NULL,
  day      date             NOT NULL,
  lat      double precision NOT NULL,
  lon      double precision NOT NULL,
  vmin     double precision NOT NULL,
  vmax     double precision NOT NULL,
  vsum     double precision NOT NULL,
  vcount   integer          NOT NULL,
  hours    smallint         NOT NULL,
  PRIMARY KEY (variable, day, lat, lon)
)`,
}

// Schema returns the DDL statements for b in apply order
func Schema(b Backend) ([]string, error) {
	switch b {
	case BackendClickHouse:
		return append([]string(nil), chSchema...), nil
	case BackendPostgres:
		return append([]string(nil), pgSchema...), nil
	}
	return nil, perr.InvalidArgf("unknown backend %q", b)
}

// Migrate applies the ClickHouse DDL
func (c *ClickHouse) Migrate(ctx context.Context) error {
	for _, stmt := range chSchema {
		if err := c.db.Exec(ctx, stmt); err != nil {
			return wrapCH(err, "migrate")
		}
	}
	return nil
}

// Migrate applies the Postgres DDL
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return wrapPG(err, "migrate")
		}
	}
	return nil
}
