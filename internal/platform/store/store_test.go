package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"findtime/internal/platform/config"
	perr "findtime/internal/platform/errors"

	"github.com/rs/zerolog"
)

type fakeSeam struct {
	pingErr  error
	closeErr error
	closed   bool
}

func (f *fakeSeam) Ping(context.Context) error { return f.pingErr }
func (f *fakeSeam) Close() error               { f.closed = true; return f.closeErr }

type fakeCH struct {
	fakeSeam
	fakeQuerier
}

func (f *fakeCH) Exec(context.Context, string, ...any) error    { return nil }
func (f *fakeCH) Insert(context.Context, string, [][]any) error { return nil }

type fakeRedis struct{ fakeSeam }

func (f *fakeRedis) Incr(context.Context, string) (int64, error)       { return 1, nil }
func (f *fakeRedis) MGet(context.Context, ...string) ([][]byte, error) { return nil, nil }
func (f *fakeRedis) SetMany(context.Context, map[string][]byte, time.Duration) error {
	return nil
}

// fakeQuerier serves a fixed result set of single int columns
type fakeQuerier struct {
	vals     []int
	queryErr error
	scanErr  error
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return &fakeRows{vals: q.vals, i: -1, scanErr: q.scanErr}, nil
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	rs, err := q.Query(ctx, sql, args...)
	if err != nil {
		return errRow{err}
	}
	if !rs.Next() {
		return errRow{errors.New("no rows")}
	}
	return &rowFromRows{rows: rs}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type fakeRows struct {
	vals    []int
	i       int
	scanErr error
	closed  bool
}

func (r *fakeRows) Next() bool { r.i++; return r.i < len(r.vals) }
func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	*(dest[0].(*int)) = r.vals[r.i]
	return nil
}
func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Close()            { r.closed = true }
func (r *fakeRows) Columns() []string { return []string{"v"} }

func scanInt(r Row) (int, error) {
	var v int
	err := r.Scan(&v)
	return v, err
}

func TestOpenEmptyConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var zl zerolog.Logger
	s, err := Open(ctx, Config{}, WithLogger(zl))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if s.PG != nil || s.CH != nil || s.RDS != nil {
		t.Fatalf("expected no seams, got pg=%T ch=%T rds=%T", s.PG, s.CH, s.RDS)
	}
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard on empty store: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestOpenBadURLsBubble(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
	}{
		{"pg", Config{PG: PGConfig{Enabled: true, URL: "://bad", MaxConns: 1}}},
		{"ch", Config{CH: CHConfig{Enabled: true, URL: "://bad"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(ctx, tc.cfg)
			if err == nil {
				t.Fatalf("expected error, got store=%#v", s)
			}
			if s != nil {
				t.Fatalf("expected nil store on error")
			}
		})
	}
}

func TestOpenRedisUnreachableIsSoft(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, Config{RDS: RedisConfig{Enabled: true, Addr: "127.0.0.1:1"}})
	if err != nil {
		t.Fatalf("redis failure should not fail Open: %v", err)
	}
	if s.RDS != nil {
		t.Fatalf("expected nil redis seam, got %T", s.RDS)
	}
}

func TestGuardJoinsFailures(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{fakeSeam: fakeSeam{pingErr: errors.New("ch down")}}
	r := &fakeRedis{fakeSeam{pingErr: errors.New("redis down")}}
	s := &Store{CH: ch, RDS: r}

	err := s.Guard(context.Background())
	if err == nil {
		t.Fatalf("expected guard error")
	}
	for _, want := range []string{"ch: ch down", "redis: redis down"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("guard error %q missing %q", err, want)
		}
	}

	var nilStore *Store
	if err := nilStore.Guard(context.Background()); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestCloseClosesEverySeam(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{fakeSeam: fakeSeam{closeErr: errors.New("boom")}}
	r := &fakeRedis{}
	s := &Store{CH: ch, RDS: r}

	err := s.Close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined close error, got %v", err)
	}
	if !ch.closed || !r.closed {
		t.Fatalf("expected all seams closed, ch=%v redis=%v", ch.closed, r.closed)
	}
}

func TestHelpers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	q := &fakeQuerier{vals: []int{3, 1, 4}}
	if _, err := One(ctx, q, scanInt, "select v"); err == nil {
		t.Fatalf("One should reject more than one row")
	}
	one, err := One(ctx, &fakeQuerier{vals: []int{7}}, scanInt, "select v")
	if err != nil || one != 7 {
		t.Fatalf("One got %d, %v", one, err)
	}
	if _, err := One(ctx, &fakeQuerier{}, scanInt, "select v"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("One on empty set: want ErrNotFound, got %v", err)
	}

	sum := 0
	stop := errors.New("stop")
	err = Each(ctx, q, func(r Row) error {
		v, err := scanInt(r)
		if err != nil {
			return err
		}
		sum += v
		if sum > 3 {
			return stop
		}
		return nil
	}, "select v")
	if !errors.Is(err, stop) || sum != 4 {
		t.Fatalf("Each should stop early, sum=%d err=%v", sum, err)
	}

	boom := errors.New("boom")
	if err := Each(ctx, &fakeQuerier{queryErr: boom}, func(Row) error { return nil }, "x"); !errors.Is(err, boom) {
		t.Fatalf("Each query error: %v", err)
	}
	if _, err := One(ctx, &fakeQuerier{vals: []int{1}, scanErr: boom}, scanInt, "x"); !errors.Is(err, boom) {
		t.Fatalf("One scan error: %v", err)
	}
}

func TestConfigFromEnablesBySetting(t *testing.T) {
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "clickhouse://default:@localhost:9000/findtime")
	t.Setenv("SERVICE_CLICKHOUSE_MAX_CONNS", "16")
	t.Setenv("SERVICE_REDIS_ADDR", "localhost:6379")
	t.Setenv("SERVICE_REDIS_DB", "2")
	t.Setenv("SERVICE_PGSQL_DBURL", "")

	c := ConfigFrom(config.New(), "findtime", "api")
	if !c.CH.Enabled || c.CH.MaxConns != 16 || c.CH.ClientTag != "api" || c.AppName != "findtime" {
		t.Fatalf("ch = %+v", c.CH)
	}
	if c.PG.Enabled {
		t.Fatalf("pg should stay disabled without a url")
	}
	if !c.RDS.Enabled || c.RDS.DB != 2 {
		t.Fatalf("redis = %+v", c.RDS)
	}
}
