package predicate

import (
	"math"
	"testing"

	perr "findtime/internal/platform/errors"
)

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		">":    Greater,
		"<":    Less,
		"==":   Equal,
		"!=":   NotEqual,
		">=":   GreaterEqual,
		" <= ": LessEqual,
	}
	for in, want := range cases {
		got, err := ParseOperator(in)
		if err != nil || got != want {
			t.Fatalf("ParseOperator(%q) = %v, %v; want %v", in, got, err, want)
		}
		if got.String() != want.String() {
			t.Fatalf("round trip %q -> %s", in, got)
		}
	}
	for _, bad := range []string{"", "=", "<>", "gt", "=>"} {
		if _, err := ParseOperator(bad); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("ParseOperator(%q) expected invalid argument, got %v", bad, err)
		}
	}
	if Invalid.Valid() || Invalid.Prunable() || Invalid.String() != "invalid" {
		t.Fatalf("zero operator must be invalid")
	}
	if NotEqual.Prunable() {
		t.Fatalf("!= must bypass pruning")
	}
}

func TestHoldsTreatsMissingAsFalse(t *testing.T) {
	for _, op := range []Operator{Greater, Less, Equal, NotEqual, GreaterEqual, LessEqual} {
		if op.Holds(math.NaN(), true, 0) {
			t.Fatalf("%s: NaN must not hold", op)
		}
		if op.Holds(1, false, 0) {
			t.Fatalf("%s: missing must not hold", op)
		}
	}
	if !NotEqual.Holds(1, true, 0) || NotEqual.Holds(0, true, 0) {
		t.Fatalf("!= on observed values")
	}
}

func TestPrune(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name string
		op   Operator
		b    Bounds
		t    float64
		want Determination
	}{
		{"gt above range", Greater, Bounds{260, 290}, 300, AllFalse},
		{"gt inside range", Greater, Bounds{260, 290}, 275, Unresolved},
		{"gt below range", Greater, Bounds{260, 290}, 250, AllTrue},
		{"gt at max", Greater, Bounds{260, 290}, 290, AllFalse},
		{"gt at min", Greater, Bounds{260, 290}, 260, Unresolved},
		{"ge at min", GreaterEqual, Bounds{260, 290}, 260, AllTrue},
		{"ge above", GreaterEqual, Bounds{260, 290}, 291, AllFalse},
		{"lt above", Less, Bounds{260, 290}, 291, AllTrue},
		{"lt at min", Less, Bounds{260, 290}, 260, AllFalse},
		{"lt at max", Less, Bounds{260, 290}, 290, Unresolved},
		{"le at max", LessEqual, Bounds{260, 290}, 290, AllTrue},
		{"le below", LessEqual, Bounds{260, 290}, 259, AllFalse},
		{"eq outside low", Equal, Bounds{260, 290}, 250, AllFalse},
		{"eq outside high", Equal, Bounds{260, 290}, 300, AllFalse},
		{"eq inside", Equal, Bounds{260, 290}, 270, Unresolved},
		{"eq degenerate", Equal, Bounds{5, 5}, 5, Unresolved},
		{"ne never prunes", NotEqual, Bounds{260, 290}, 300, Unresolved},
		{"nan min", Greater, Bounds{nan, 290}, 300, Unresolved},
		{"nan max", Less, Bounds{260, nan}, 100, Unresolved},
		{"inf bound", Greater, Bounds{math.Inf(-1), 290}, 300, Unresolved},
		{"inverted", Greater, Bounds{290, 260}, 300, Unresolved},
		{"nan threshold", Greater, Bounds{260, 290}, nan, Unresolved},
	}
	for _, c := range cases {
		if got := Prune(c.op, c.b, c.t); got != c.want {
			t.Fatalf("%s: Prune(%s, %+v, %v) = %s, want %s", c.name, c.op, c.b, c.t, got, c.want)
		}
	}
}

// a resolved block must agree with every value its bounds admit
func TestPruneAgreesWithEval(t *testing.T) {
	values := []float64{-2, -1, -0.5, 0, 0.5, 1, 2}
	ops := []Operator{Greater, Less, Equal, GreaterEqual, LessEqual}
	for _, op := range ops {
		for i, lo := range values {
			for _, hi := range values[i:] {
				for _, th := range values {
					d := Prune(op, Bounds{lo, hi}, th)
					if !d.Resolved() {
						continue
					}
					for _, v := range values {
						if v < lo || v > hi {
							continue
						}
						if op.Eval(v, th) != d.Value() {
							t.Fatalf("%s [%v,%v] t=%v resolved %s but value %v disagrees", op, lo, hi, th, d, v)
						}
					}
				}
			}
		}
	}
}
