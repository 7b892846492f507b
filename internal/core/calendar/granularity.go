// Package calendar splits hourly time ranges into calendar-aligned blocks
// (whole years, months, days, and leftover hours) and compresses runs of
// adjacent blocks into spans
package calendar

import (
	"fmt"
	"strings"
	"time"

	perr "findtime/internal/platform/errors"
)

// Granularity is a calendar level, ordered coarsest to finest
type Granularity uint8

const (
	// Year is a calendar year in UTC
	Year Granularity = iota
	// Month is a calendar month in UTC
	Month
	// Day is a calendar day in UTC
	Day
	// Hour is the leaf level, no further refinement exists
	Hour
)

// Levels lists every granularity coarsest to finest
var Levels = [...]Granularity{Year, Month, Day, Hour}

func (g Granularity) String() string {
	switch g {
	case Year:
		return "year"
	case Month:
		return "month"
	case Day:
		return "day"
	case Hour:
		return "hour"
	default:
		return fmt.Sprintf("granularity(%d)", uint8(g))
	}
}

// Valid reports whether g is one of the known levels
func (g Granularity) Valid() bool { return g <= Hour }

// Finer returns the next finer level; ok is false for Hour
func (g Granularity) Finer() (Granularity, bool) {
	if g >= Hour {
		return Hour, false
	}
	return g + 1, true
}

// ParseGranularity parses year, month, day or hour (case-insensitive)
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "year":
		return Year, nil
	case "month":
		return Month, nil
	case "day":
		return Day, nil
	case "hour":
		return Hour, nil
	}
	return Hour, perr.InvalidArgf("unknown temporal resolution %q", s)
}

// Truncate returns the start of the g block containing t, in UTC
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(time.Hour)
	}
}

// Add moves a block start n blocks forward (or back for negative n)
// t must already be aligned to g
func (g Granularity) Add(t time.Time, n int) time.Time {
	switch g {
	case Year:
		return t.AddDate(n, 0, 0)
	case Month:
		return t.AddDate(0, n, 0)
	case Day:
		return t.AddDate(0, 0, n)
	default:
		return t.Add(time.Duration(n) * time.Hour)
	}
}

// layout is the compact label format used for blocks at g
func (g Granularity) layout() string {
	switch g {
	case Year:
		return "2006"
	case Month:
		return "2006-01"
	case Day:
		return "2006-01-02"
	default:
		return "2006-01-02T15"
	}
}

// Steps counts whole g blocks from the block holding a to the block holding b
// negative when b precedes a
func (g Granularity) Steps(a, b time.Time) int {
	a, b = g.Truncate(a), g.Truncate(b)
	switch g {
	case Year:
		return b.Year() - a.Year()
	case Month:
		return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	case Day:
		return int(b.Sub(a).Hours()) / 24
	default:
		return int(b.Sub(a) / time.Hour)
	}
}
