package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"findtime/internal/services/findtime/repo"
)

func TestParseRow(t *testing.T) {
	row, err := parseRow([]string{"2m_temperature", "2020-01-02 05:00:00", "1.5", "6.25", "287.1"})
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	want := repo.HourlyRow{Variable: "t2m", TS: time.Date(2020, 1, 2, 5, 0, 0, 0, time.UTC), Lat: 1.5, Lon: 6.25, Value: 287.1}
	if row != want {
		t.Fatalf("got %+v want %+v", row, want)
	}

	bad := [][]string{
		{"variable", "ts", "lat", "lon", "value"},
		{"t2m", "2020-01-02 05:30:00", "1", "2", "3"},
		{"t2m", "2020-01-02", "x", "2", "3"},
		{"humidity", "2020-01-02", "1", "2", "3"},
	}
	for _, rec := range bad {
		if _, err := parseRow(rec); err == nil {
			t.Fatalf("parseRow(%v) accepted", rec)
		}
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("2020-01-01", "2020-01-02 23")
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if r.Hours() != 48 {
		t.Fatalf("hours %d want 48", r.Hours())
	}
	if _, err := parseRange("2020-01-02", "2020-01-01"); err == nil {
		t.Fatalf("reversed range accepted")
	}
	if _, err := parseRange("soon", "2020-01-01"); err == nil || !strings.Contains(err.Error(), "--start") {
		t.Fatalf("want --start error, got %v", err)
	}
}

func TestSchemaPrints(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"schema", "--backend", "postgres"})
	t.Cleanup(func() { backendFlag = ""; rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("schema: %v", err)
	}
	for _, tbl := range []string{"grid_hourly", "grid_daily"} {
		if !strings.Contains(out.String(), tbl) {
			t.Fatalf("schema output missing %s:\n%s", tbl, out.String())
		}
	}
}
