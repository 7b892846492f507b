// Package ch opens the ClickHouse connection behind the store's columnar seam
package ch

import (
	"context"
	"fmt"
	"time"

	"findtime/internal/platform/logger"
	"findtime/internal/platform/store/trace"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the clickhouse client
type Config struct {
	// URL is a clickhouse:// DSN, e.g. clickhouse://default:@localhost:9000/findtime
	URL string
	// Database overrides the DSN database when set
	Database   string
	ClientName string
	ClientTag  string
	SlowMs     int
	MaxConns   int
}

// CH is a clickhouse client with optional query tracing
type CH struct {
	Conn   driver.Conn
	Tracer trace.QueryTracer
	SlowMs int
}

var openConn = clickhouse.Open

// Open parses the DSN, connects and pings once
func Open(ctx context.Context, cfg Config, tracer trace.QueryTracer) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if cfg.Database != "" {
		opts.Auth.Database = cfg.Database
	}
	if cfg.MaxConns > 0 {
		opts.MaxOpenConns = cfg.MaxConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)

	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &CH{Conn: conn, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// withQueryID tags the statement with the find-time query id so it shows in system.query_log
func withQueryID(ctx context.Context) context.Context {
	if qid := logger.QueryID(ctx); qid != "" {
		return clickhouse.Context(ctx, clickhouse.WithQueryID(fmt.Sprintf("%s-%d", qid, time.Now().UnixNano())))
	}
	return ctx
}

// Query runs a select and returns the driver rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (driver.Rows, error) {
	start := time.Now()
	rows, err := c.Conn.Query(withQueryID(ctx), sql, args...)
	trace.Emit(ctx, c.Tracer, c.SlowMs, sql, args, start, err)
	return rows, err
}

// QueryRow runs a select expected to yield one row
func (c *CH) QueryRow(ctx context.Context, sql string, args ...any) driver.Row {
	start := time.Now()
	row := c.Conn.QueryRow(withQueryID(ctx), sql, args...)
	trace.Emit(ctx, c.Tracer, c.SlowMs, sql, args, start, row.Err())
	return row
}

// Exec runs DDL or INSERT ... SELECT statements
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	start := time.Now()
	err := c.Conn.Exec(withQueryID(ctx), sql, args...)
	trace.Emit(ctx, c.Tracer, c.SlowMs, sql, args, start, err)
	return err
}

// Insert appends rows to table in one native batch
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	start := time.Now()
	stmt := "INSERT INTO " + table
	batch, err := c.Conn.PrepareBatch(ctx, stmt)
	if err != nil {
		trace.Emit(ctx, c.Tracer, c.SlowMs, stmt, nil, start, err)
		return err
	}
	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			trace.Emit(ctx, c.Tracer, c.SlowMs, stmt, nil, start, err)
			return err
		}
	}
	err = batch.Send()
	trace.Emit(ctx, c.Tracer, c.SlowMs, stmt, []any{len(rows)}, start, err)
	return err
}

// Ping checks connectivity
func (c *CH) Ping(ctx context.Context) error { return c.Conn.Ping(ctx) }

// Close releases the connection pool
func (c *CH) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}
