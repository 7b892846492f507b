// Package trace logs SQL issued by the store backends
package trace

import (
	"context"
	"strings"
	"time"

	"findtime/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement sent to a backend
type QueryEvent struct {
	SQL     string
	Args    any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer receives query events
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL, independent of the root level
// backend names the store ("pg", "ch") and becomes the component field
func Tracer(root logger.Logger, backend string) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", backend).Logger()
	return &zlTracer{log: ll, msg: backend + " query"}
}

type zlTracer struct {
	log logger.Logger
	msg string
}

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if qid := logger.QueryID(ctx); qid != "" {
		evt = evt.Str("query_id", qid)
	}
	evt.Float64("elapsed_ms", float64(ev.Elapsed.Microseconds())/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", Compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg(z.msg)
}

// Emit times a statement started at start and reports it to t; nil t is a no-op
// slowMs < 0 disables the slow flag
func Emit(ctx context.Context, t QueryTracer, slowMs int, sql string, args []any, start time.Time, err error) {
	if t == nil {
		return
	}
	elapsed := time.Since(start)
	t.OnQuery(ctx, QueryEvent{
		SQL:     sql,
		Args:    args,
		Elapsed: elapsed,
		Err:     err,
		Slow:    slowMs >= 0 && elapsed >= time.Duration(slowMs)*time.Millisecond,
	})
}

// Compact folds runs of whitespace into single spaces
func Compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
