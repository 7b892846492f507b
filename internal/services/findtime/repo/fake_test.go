package repo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"findtime/internal/platform/store"
)

type call struct {
	sql  string
	args []any
}

// fakeDB serves canned rows per query in order and records every statement
// it satisfies both store.Clickhouse and store.TxRunner through the wrappers below
type fakeDB struct {
	mu       sync.Mutex
	results  [][][]any
	queryErr error
	execErr  error
	calls    []call
	inserts  map[string][][]any
	txs      int
}

func (f *fakeDB) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{sql: sql, args: args})
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.record(sql, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows [][]any
	if len(f.results) > 0 {
		rows, f.results = f.results[0], f.results[1:]
	}
	return &fakeRows{rows: rows, i: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	rows, _ := f.Query(ctx, sql, args...)
	rows.Next()
	return rows
}

func (f *fakeDB) sqlOf(i int) string { return f.calls[i].sql }

type fakeCH struct{ *fakeDB }

func (f fakeCH) Exec(_ context.Context, sql string, args ...any) error {
	f.record(sql, args)
	return f.execErr
}

func (f fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inserts == nil {
		f.inserts = map[string][][]any{}
	}
	f.inserts[table] = append(f.inserts[table], rows...)
	return f.execErr
}

func (f fakeCH) Close() error { return nil }

type fakePG struct{ *fakeDB }

type tag string

func (t tag) String() string      { return string(t) }
func (t tag) RowsAffected() int64 { return 0 }

func (f fakePG) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.record(sql, args)
	return tag("OK"), f.execErr
}

func (f fakePG) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	f.mu.Lock()
	f.txs++
	f.mu.Unlock()
	return fn(f)
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Next() bool { r.i++; return r.i < len(r.rows) }
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

func (r *fakeRows) Columns() []string { return nil }

func (r *fakeRows) Scan(dest ...any) error {
	if r.i < 0 || r.i >= len(r.rows) {
		return fmt.Errorf("no row")
	}
	row := r.rows[r.i]
	if len(row) != len(dest) {
		return fmt.Errorf("scan %d into %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *time.Time:
			*p = row[i].(time.Time)
		case *float64:
			*p = row[i].(float64)
		case *uint64:
			*p = row[i].(uint64)
		case *int64:
			*p = row[i].(int64)
		case **float64:
			if row[i] == nil {
				*p = nil
			} else {
				v := row[i].(float64)
				*p = &v
			}
		default:
			return fmt.Errorf("unsupported dest %T", d)
		}
	}
	return nil
}

// fakeRedis is an in-memory store.Redis
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string][]byte
	mgetErr error
	setErr  error
	incrErr error
	mgets   int
	ttl     time.Duration
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string][]byte{}} }

func (r *fakeRedis) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mgets++
	if r.mgetErr != nil {
		return nil, r.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = r.data[k]
	}
	return out, nil
}

func (r *fakeRedis) SetMany(_ context.Context, entries map[string][]byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.ttl = ttl
	for k, v := range entries {
		r.data[k] = v
	}
	return nil
}

func (r *fakeRedis) Incr(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrErr != nil {
		return 0, r.incrErr
	}
	n, _ := strconv.ParseInt(string(r.data[key]), 10, 64)
	n++
	r.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (r *fakeRedis) Close() error { return nil }

func (r *fakeRedis) keys(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}
