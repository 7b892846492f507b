package module

import (
	"time"

	"findtime/internal/core/pyramid"
	"findtime/internal/platform/config"
	"findtime/internal/services/findtime/repo"
)

// Options holds configuration settings for the find-time module
type Options struct {
	Backend      repo.Backend
	Parallelism  int
	Aggregation  pyramid.Reducer
	MaxHours     int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// FromConfig reads FINDTIME_* settings
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("FINDTIME_")
	agg, _ := pyramid.ParseReducer(fc.MayEnum("BASELINE_AGG", "mean", "mean", "min", "max"))
	return Options{
		Backend:      repo.Backend(fc.MayEnum("BACKEND", string(repo.BackendClickHouse), string(repo.BackendClickHouse), string(repo.BackendPostgres))),
		Parallelism:  fc.MayInt("PARALLELISM", 1),
		Aggregation:  agg,
		MaxHours:     fc.MayInt("MAX_HOURS", 0),
		CacheEnabled: fc.MayBool("CACHE_ENABLED", true),
		CacheTTL:     fc.MayDuration("CACHE_TTL", repo.DefaultCacheTTL),
	}
}
