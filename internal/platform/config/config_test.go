package config

import (
	"testing"
	"time"

	kit "findtime/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	svc := New().Prefix("SERVICE_")
	if got := svc.Prefix("PGSQL_").key("DBURL"); got != "SERVICE_PGSQL_DBURL" {
		t.Fatalf("nested key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("SERVICE_CLICKHOUSE_")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "  clickhouse://localhost:9000 ")
	if got := c.MustString("DBURL"); got != "clickhouse://localhost:9000" {
		t.Fatalf("MustString = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })

	t.Setenv("SERVICE_CLICKHOUSE_BLANK", "   ")
	kit.MustPanic(t, func() { _ = c.MustString("BLANK") })
}

func TestMayFallbacks(t *testing.T) {
	c := New().Prefix("FINDTIME_")

	if got := c.MayString("BACKEND", "clickhouse"); got != "clickhouse" {
		t.Fatalf("MayString default = %q", got)
	}

	cases := []struct {
		env, val string
		check    func() bool
	}{
		{"FINDTIME_PARALLELISM", " 4 ", func() bool { return c.MayInt("PARALLELISM", 1) == 4 }},
		{"FINDTIME_PARALLELISM", "many", func() bool { return c.MayInt("PARALLELISM", 1) == 1 }},
		{"FINDTIME_CACHE_ENABLED", "true", func() bool { return c.MayBool("CACHE_ENABLED", false) }},
		{"FINDTIME_CACHE_ENABLED", "perhaps", func() bool { return c.MayBool("CACHE_ENABLED", true) }},
		{"FINDTIME_CACHE_TTL", "90s", func() bool { return c.MayDuration("CACHE_TTL", time.Hour) == 90*time.Second }},
		{"FINDTIME_CACHE_TTL", "soon", func() bool { return c.MayDuration("CACHE_TTL", time.Hour) == time.Hour }},
	}
	for _, tc := range cases {
		t.Setenv(tc.env, tc.val)
		if !tc.check() {
			t.Fatalf("%s=%q gave unexpected value", tc.env, tc.val)
		}
	}
}

func TestMayPort(t *testing.T) {
	c := New().Prefix("FINDTIME_API_")
	if got := c.MayPort("PORT", ":4000"); got != ":4000" {
		t.Fatalf("default port = %q", got)
	}
	t.Setenv("FINDTIME_API_PORT", "8080")
	if got := c.MayPort("PORT", ":4000"); got != ":8080" {
		t.Fatalf("port = %q", got)
	}
	t.Setenv("FINDTIME_API_PORT", "70000")
	kit.MustPanic(t, func() { _ = c.MayPort("PORT", ":4000") })
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CORS_")
	if got := c.MayCSV("ORIGINS", []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Fatalf("MayCSV default = %#v", got)
	}
	t.Setenv("CORS_ORIGINS", " https://a.example, ,https://b.example ,, ")
	got := c.MayCSV("ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("MayCSV = %#v", got)
	}
	t.Setenv("CORS_ORIGINS", " , ,")
	if got := c.MayCSV("ORIGINS", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("all-empty should fall back, got %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("FINDTIME_")
	if got := c.MayEnum("BASELINE_AGG", "mean", "mean", "min", "max"); got != "mean" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("FINDTIME_BACKEND", "Postgres")
	if got := c.MayEnum("BACKEND", "clickhouse", "clickhouse", "postgres"); got != "postgres" {
		t.Fatalf("MayEnum = %q", got)
	}
	t.Setenv("FINDTIME_BACKEND", "sqlite")
	kit.MustPanic(t, func() { _ = c.MayEnum("BACKEND", "clickhouse", "clickhouse", "postgres") })
	if got := c.MayEnum("MISSING", "", "a"); got != "" {
		t.Fatalf("empty default = %q", got)
	}
}
