package ch

import (
	"context"
	"errors"
	"testing"

	"findtime/internal/platform/testkit"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func TestOpen_BadDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "://nope"}, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpen_AppliesOverridesBeforeConnecting(t *testing.T) {
	testkit.Serial(t)

	var seen *clickhouse.Options
	testkit.Swap(t, &openConn, func(o *clickhouse.Options) (driver.Conn, error) {
		seen = o
		return nil, errors.New("no server")
	})

	_, err := Open(context.Background(), Config{
		URL:        "clickhouse://default:@localhost:9000/default",
		Database:   "findtime",
		ClientName: "api",
		ClientTag:  "test",
		MaxConns:   7,
	}, nil)
	if err == nil {
		t.Fatalf("expected open error from seam")
	}
	if seen == nil {
		t.Fatalf("openConn not called")
	}
	if seen.Auth.Database != "findtime" || seen.MaxOpenConns != 7 || seen.DialTimeout == 0 {
		t.Fatalf("options not applied: db=%q max=%d dial=%v", seen.Auth.Database, seen.MaxOpenConns, seen.DialTimeout)
	}
	if len(seen.ClientInfo.Products) == 0 || seen.ClientInfo.Products[0].Name != "findtime" {
		t.Fatalf("client info not set: %+v", seen.ClientInfo)
	}
}

func TestBuildClientInfo(t *testing.T) {
	t.Parallel()

	ci := BuildClientInfo(" cli ", "v1")
	got := map[string]string{}
	for _, p := range ci.Products {
		got[p.Name] = p.Version
	}
	if got["role"] != "cli" || got["findtime"] != "v1" || got["go"] == "" {
		t.Fatalf("unexpected products %v", got)
	}
}

func TestClose_NilSafe(t *testing.T) {
	t.Parallel()

	var c *CH
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
