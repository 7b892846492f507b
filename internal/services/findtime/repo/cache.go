package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"findtime/internal/core/calendar"
	"findtime/internal/core/pyramid"
	perr "findtime/internal/platform/errors"
	"findtime/internal/platform/logger"
	"findtime/internal/platform/metrics"
	"findtime/internal/platform/store"
)

// DefaultCacheTTL bounds how long an unused block statistic stays in Redis
const DefaultCacheTTL = 24 * time.Hour

// CachedOracle answers block statistics from Redis and forwards misses to Next
// a Redis error trips the breaker and the oracle keeps serving from Next
//
// Entries are keyed by the variable's rollup generation; Invalidate bumps it so
// bounds computed before a rollup are never read again
type CachedOracle struct {
	Next    pyramid.Oracle
	RDS     store.Redis
	TTL     time.Duration
	Metrics *metrics.Metrics

	mu       sync.RWMutex
	disabled bool
}

// NewCachedOracle wraps next; a nil rds yields next itself
func NewCachedOracle(next pyramid.Oracle, rds store.Redis, ttl time.Duration, m *metrics.Metrics) pyramid.Oracle {
	if rds == nil {
		return next
	}
	return newCachedOracle(next, rds, ttl, m)
}

func newCachedOracle(next pyramid.Oracle, rds store.Redis, ttl time.Duration, m *metrics.Metrics) *CachedOracle {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedOracle{Next: next, RDS: rds, TTL: ttl, Metrics: m}
}

// cachedSample is the stored form; invalid blocks carry no value so NaN never hits JSON
type cachedSample struct {
	V  float64 `json:"v,omitempty"`
	OK bool    `json:"ok"`
}

// Available reports whether the breaker is closed
func (c *CachedOracle) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled
}

// Reset closes the breaker again
func (c *CachedOracle) Reset() {
	c.mu.Lock()
	c.disabled = false
	c.mu.Unlock()
}

func (c *CachedOracle) trip(ctx context.Context, err error, op string) {
	c.Metrics.Cache("error")
	c.mu.Lock()
	already := c.disabled
	c.disabled = true
	c.mu.Unlock()
	if !already {
		logger.C(ctx).Warn().Err(err).Str("operation", op).Msg("bounds cache disabled after redis error")
	}
}

// genKey holds the rollup generation of variable; it never expires
func genKey(variable string) string { return "findtime:gen:" + variable }

// cacheKey identifies one block statistic within generation gen
func cacheKey(req pyramid.AggregateRequest, gen int64, b calendar.Block) string {
	box := req.Target.Box
	return fmt.Sprintf("findtime:bounds:%s:g%d:%g:%g:%g:%g:%s:%s:%s",
		req.Target.Variable, gen, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
		req.Reducer, b.Granularity, b.Start.UTC().Format(time.DateOnly))
}

// generation reads the current rollup generation of variable; absent is 0
func (c *CachedOracle) generation(ctx context.Context, variable string) (int64, error) {
	vals, err := c.RDS.MGet(ctx, genKey(variable))
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 || vals[0] == nil {
		return 0, nil
	}
	gen, err := strconv.ParseInt(string(vals[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("generation of %s: %w", variable, err)
	}
	return gen, nil
}

// Invalidate retires every cached statistic of variable
// it must run after grid_daily changed; a failure leaves stale bounds reachable
func (c *CachedOracle) Invalidate(ctx context.Context, variable string) error {
	gen, err := c.RDS.Incr(ctx, genKey(variable))
	if err != nil {
		c.trip(ctx, err, "incr")
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "invalidate cached bounds of %s", variable)
	}
	logger.C(ctx).Debug().Str("variable", variable).Int64("generation", gen).Msg("cached bounds invalidated")
	return nil
}

// Aggregate serves every block it can from Redis and fetches the rest in as few spans as possible
func (c *CachedOracle) Aggregate(ctx context.Context, req pyramid.AggregateRequest) ([]pyramid.Sample, error) {
	if !c.Available() {
		return c.Next.Aggregate(ctx, req)
	}

	var blocks []calendar.Block
	for _, sp := range req.Spans {
		blocks = append(blocks, sp.Blocks()...)
	}
	if len(blocks) == 0 {
		return c.Next.Aggregate(ctx, req)
	}
	gen, err := c.generation(ctx, req.Target.Variable)
	if err != nil {
		c.trip(ctx, err, "generation")
		return c.Next.Aggregate(ctx, req)
	}
	keys := make([]string, len(blocks))
	for i, b := range blocks {
		keys[i] = cacheKey(req, gen, b)
	}

	vals, err := c.RDS.MGet(ctx, keys...)
	if err != nil || len(vals) != len(keys) {
		if err == nil {
			err = fmt.Errorf("mget returned %d values for %d keys", len(vals), len(keys))
		}
		c.trip(ctx, err, "mget")
		return c.Next.Aggregate(ctx, req)
	}

	out := make([]pyramid.Sample, len(blocks))
	var missed []int
	for i, raw := range vals {
		var cs cachedSample
		if raw == nil || json.Unmarshal(raw, &cs) != nil {
			missed = append(missed, i)
			continue
		}
		out[i] = pyramid.Sample{At: blocks[i].End(), Value: cs.V, Valid: cs.OK}
		if !cs.OK {
			out[i].Value = math.NaN()
		}
	}
	c.Metrics.CacheN("hit", len(blocks)-len(missed))
	c.Metrics.CacheN("miss", len(missed))
	if len(missed) == 0 {
		return out, nil
	}

	mblocks := make([]calendar.Block, len(missed))
	for j, i := range missed {
		mblocks[j] = blocks[i]
	}
	sub := req
	sub.Spans = calendar.Compress(mblocks)
	fetched, err := c.Next.Aggregate(ctx, sub)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missed) {
		return nil, perr.Upstreamf("oracle returned %d values for %d uncached blocks", len(fetched), len(missed))
	}

	entries := make(map[string][]byte, len(missed))
	for j, i := range missed {
		out[i] = fetched[j]
		cs := cachedSample{OK: fetched[j].Valid}
		if cs.OK {
			cs.V = fetched[j].Value
		}
		raw, err := json.Marshal(cs)
		if err != nil {
			continue
		}
		entries[keys[i]] = raw
	}
	if err := c.RDS.SetMany(ctx, entries, c.TTL); err != nil {
		c.trip(ctx, err, "set")
	}
	return out, nil
}

// CachedRepo serves bounds through a CachedOracle and retires them on every rollup
type CachedRepo struct {
	Repo
	Cache *CachedOracle
}

// NewCachedRepo wraps r; a nil rds yields r itself
func NewCachedRepo(r Repo, rds store.Redis, ttl time.Duration, m *metrics.Metrics) Repo {
	if rds == nil {
		return r
	}
	return &CachedRepo{Repo: r, Cache: newCachedOracle(r, rds, ttl, m)}
}

// Aggregate answers through the cache
func (c *CachedRepo) Aggregate(ctx context.Context, req pyramid.AggregateRequest) ([]pyramid.Sample, error) {
	return c.Cache.Aggregate(ctx, req)
}

// Rollup rewrites grid_daily and then invalidates the variable's cached bounds
func (c *CachedRepo) Rollup(ctx context.Context, variable string, r calendar.TimeRange) error {
	if err := c.Repo.Rollup(ctx, variable, r); err != nil {
		return err
	}
	return c.Cache.Invalidate(ctx, variable)
}
