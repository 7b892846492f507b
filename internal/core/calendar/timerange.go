package calendar

import (
	"strings"
	"time"

	perr "findtime/internal/platform/errors"
)

// TimeRange is an inclusive span of hourly ticks [Start, End]
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewRange validates bounds and normalises both to UTC
// both ends must sit on an hourly tick and Start must not be after End
func NewRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, perr.InvalidArgf("range start and end are required")
	}
	start, end = start.UTC(), end.UTC()
	if !onTick(start) {
		return TimeRange{}, perr.WithField(perr.InvalidArgf("range start %s is not on an hourly tick", start.Format(time.RFC3339Nano)), "start")
	}
	if !onTick(end) {
		return TimeRange{}, perr.WithField(perr.InvalidArgf("range end %s is not on an hourly tick", end.Format(time.RFC3339Nano)), "end")
	}
	if start.After(end) {
		return TimeRange{}, perr.InvalidArgf("range start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeRange{Start: start, End: end}, nil
}

// MustRange is NewRange that panics, handy for literals in tests and tools
func MustRange(start, end time.Time) TimeRange {
	r, err := NewRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func onTick(t time.Time) bool { return t.Equal(t.Truncate(time.Hour)) }

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15",
	"2006-01-02",
}

// ParseTime accepts RFC3339, "2006-01-02 15:04:05" and date-only forms, UTC unless an offset is given
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, perr.InvalidArgf("unrecognised timestamp %q", s)
}

// Hours returns the number of hourly ticks in the range, both ends included
func (r TimeRange) Hours() int { return int(r.End.Sub(r.Start)/time.Hour) + 1 }

// Contains reports whether t lies within the range
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Index returns the tick offset of t from Start
// ok is false when t is outside the range or between ticks
func (r TimeRange) Index(t time.Time) (int, bool) {
	if !r.Contains(t) || !onTick(t) {
		return 0, false
	}
	return int(t.Sub(r.Start) / time.Hour), true
}

// Tick returns the i-th hourly tick of the range
func (r TimeRange) Tick(i int) time.Time { return r.Start.Add(time.Duration(i) * time.Hour) }

func (r TimeRange) String() string {
	return r.Start.Format(time.RFC3339) + ".." + r.End.Format(time.RFC3339)
}

// MergeRanges sorts ranges and joins any that overlap or touch on the hourly grid
func MergeRanges(rs []TimeRange) []TimeRange {
	if len(rs) == 0 {
		return nil
	}
	sorted := append([]TimeRange(nil), rs...)
	sortRanges(sorted)

	out := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if !r.Start.After(last.End.Add(time.Hour)) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
