package pyramid

import (
	"testing"

	"findtime/internal/core/calendar"
	perr "findtime/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
)

func TestAssemble(t *testing.T) {
	r := calendar.MustRange(h(2020, 1, 31, 22), h(2020, 2, 2, 1))
	feb1 := calendar.BlockAt(calendar.Day, h(2020, 2, 1, 0))
	head := calendar.MustRange(h(2020, 1, 31, 22), h(2020, 1, 31, 23))
	tail := calendar.MustRange(h(2020, 2, 2, 0), h(2020, 2, 2, 1))

	s, err := Assemble(r,
		[]Resolution{{Block: feb1, Value: true}},
		[]Piece{{Range: tail, Values: []bool{false, true}}, {Range: head, Values: []bool{true, false}}},
	)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if s.Len() != r.Hours() {
		t.Fatalf("len = %d, want %d", s.Len(), r.Hours())
	}
	want := []Run{
		{Start: h(2020, 1, 31, 22), End: h(2020, 1, 31, 22), Count: 1, Value: true},
		{Start: h(2020, 1, 31, 23), End: h(2020, 1, 31, 23), Count: 1, Value: false},
		{Start: h(2020, 2, 1, 0), End: h(2020, 2, 1, 23), Count: 24, Value: true},
		{Start: h(2020, 2, 2, 0), End: h(2020, 2, 2, 0), Count: 1, Value: false},
		{Start: h(2020, 2, 2, 1), End: h(2020, 2, 2, 1), Count: 1, Value: true},
	}
	if diff := cmp.Diff(want, s.Runs()); diff != "" {
		t.Fatalf("runs (-want +got):\n%s", diff)
	}
	if pts := s.Points(); !pts[2].At.Equal(h(2020, 2, 1, 0)) || !pts[2].Value {
		t.Fatalf("point 2 = %+v", pts[2])
	}
}

func TestAssemble_DetectsGapsAndOverlaps(t *testing.T) {
	r := calendar.MustRange(h(2020, 3, 1, 0), h(2020, 3, 1, 23))
	day := calendar.BlockAt(calendar.Day, r.Start)
	morning := calendar.MustRange(h(2020, 3, 1, 0), h(2020, 3, 1, 5))
	outside := calendar.MustRange(h(2020, 3, 2, 0), h(2020, 3, 2, 0))

	cases := []struct {
		name     string
		resolved []Resolution
		pieces   []Piece
	}{
		{"gap", nil, []Piece{{Range: morning, Values: make([]bool, 6)}}},
		{"overlap", []Resolution{{Block: day}}, []Piece{{Range: morning, Values: make([]bool, 6)}}},
		{"outside", []Resolution{{Block: day}}, []Piece{{Range: outside, Values: make([]bool, 1)}}},
		{"short piece", nil, []Piece{{Range: r, Values: make([]bool, 3)}}},
	}
	for _, c := range cases {
		if _, err := Assemble(r, c.resolved, c.pieces); !perr.IsCode(err, perr.ErrorCodeUnknown) || err == nil {
			t.Fatalf("%s: expected an internal error, got %v", c.name, err)
		}
	}
}

func TestSeries_EmptyAndMonthly(t *testing.T) {
	if runs := (Series{}).Runs(); len(runs) != 0 {
		t.Fatalf("empty series runs = %v", runs)
	}
	s := Series{Granularity: calendar.Month, Start: h(2020, 11, 1, 0), Values: []bool{true, true, false}}
	runs := s.Runs()
	if len(runs) != 2 || !runs[0].End.Equal(h(2020, 12, 1, 0)) || !runs[1].Start.Equal(h(2021, 1, 1, 0)) {
		t.Fatalf("monthly runs = %+v", runs)
	}
}
