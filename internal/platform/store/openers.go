package store

import (
	"context"
	"fmt"
	"time"

	chx "findtime/internal/platform/store/ch"
	"findtime/internal/platform/store/pg"
	"findtime/internal/platform/store/rds"
	"findtime/internal/platform/store/trace"
)

const defaultPingAttempts = 20

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer trace.QueryTracer
	if cfg.PG.LogSQL {
		tracer = trace.Tracer(s.Log, "pg")
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	// ping with retry/backoff using the pool directly so no trace line is emitted
	maxAttempts := s.pingAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultPingAttempts
	}
	const (
		pingTimeout    = 3 * time.Second
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := range maxAttempts {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		if i == maxAttempts-1 {
			break
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	var tracer trace.QueryTracer
	if cfg.CH.LogSQL {
		tracer = trace.Tracer(s.Log, "ch")
	}
	name := cfg.CH.ClientName
	if name == "" {
		name = cfg.AppName
	}
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		Database:   cfg.CH.Database,
		ClientName: name,
		ClientTag:  cfg.CH.ClientTag,
		SlowMs:     cfg.CH.SlowQueryMs,
		MaxConns:   cfg.CH.MaxConns,
	}, tracer)
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

func openRedis(ctx context.Context, cfg Config) (Redis, error) {
	r, err := rds.Open(ctx, rds.Config{Addr: cfg.RDS.Addr, Password: cfg.RDS.Password, DB: cfg.RDS.DB})
	if err != nil {
		return nil, err
	}
	return r, nil
}
