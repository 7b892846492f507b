package pyramid

import (
	"time"

	"findtime/internal/core/calendar"
)

// LevelStats records what happened at one granularity
type LevelStats struct {
	Granularity calendar.Granularity
	Pending     int
	Spans       int
	True        int
	False       int
	Refined     int
}

// Stats is the decision trace of one query
type Stats struct {
	Levels        []LevelStats
	OracleCalls   int
	BaselineCalls int
	BaselineHours int
	Pruned        bool
	Duration      time.Duration
}

// Resolved counts blocks decided without exact evaluation
func (s Stats) Resolved() int {
	n := 0
	for _, l := range s.Levels {
		n += l.True + l.False
	}
	return n
}
