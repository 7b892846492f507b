package rds

import (
	"context"
	"testing"
	"time"
)

func TestOpen_UnreachableFails(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// port 1 is closed everywhere, the dial is refused immediately
	r, err := Open(ctx, Config{Addr: "127.0.0.1:1"})
	if err == nil {
		_ = r.Close()
		t.Fatalf("expected ping error")
	}
}

func TestClose_NilSafe(t *testing.T) {
	t.Parallel()

	var r *RDS
	if err := r.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestEmptyBatchesSkipTheServer(t *testing.T) {
	t.Parallel()

	// a client that was never connected would fail any real command
	r := &RDS{}
	got, err := r.MGet(context.Background())
	if err != nil || got != nil {
		t.Fatalf("empty MGet: %v %v", got, err)
	}
	if err := r.SetMany(context.Background(), nil, time.Minute); err != nil {
		t.Fatalf("empty SetMany: %v", err)
	}
}
