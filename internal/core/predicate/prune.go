package predicate

import "math"

// Bounds is the min and max of a variable over one block
type Bounds struct {
	Min float64
	Max float64
}

// Finite reports whether both bounds are usable numbers with Min <= Max
func (b Bounds) Finite() bool {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
		return false
	}
	return b.Min <= b.Max
}

// Determination is the outcome of checking a block against its bounds
type Determination uint8

const (
	// Unresolved means the block needs refinement
	Unresolved Determination = iota
	// AllTrue means every hour in the block satisfies the predicate
	AllTrue
	// AllFalse means no hour in the block satisfies the predicate
	AllFalse
)

func (d Determination) String() string {
	switch d {
	case AllTrue:
		return "true"
	case AllFalse:
		return "false"
	default:
		return "unresolved"
	}
}

// Resolved reports whether d decides the block
func (d Determination) Resolved() bool { return d != Unresolved }

// Value is the boolean every hour takes when d is resolved
func (d Determination) Value() bool { return d == AllTrue }

// Prune decides a block from its bounds
// missing or non-finite bounds always refine; == never resolves true since
// a block whose min and max both equal t is still decided hour by hour
func Prune(op Operator, b Bounds, t float64) Determination {
	if !op.Prunable() || !b.Finite() || math.IsNaN(t) {
		return Unresolved
	}
	switch op {
	case Greater:
		if b.Min > t {
			return AllTrue
		}
		if b.Max <= t {
			return AllFalse
		}
	case Less:
		if b.Max < t {
			return AllTrue
		}
		if b.Min >= t {
			return AllFalse
		}
	case Equal:
		if b.Min > t || b.Max < t {
			return AllFalse
		}
	case GreaterEqual:
		if b.Min >= t {
			return AllTrue
		}
		if b.Max < t {
			return AllFalse
		}
	case LessEqual:
		if b.Max <= t {
			return AllTrue
		}
		if b.Min > t {
			return AllFalse
		}
	}
	return Unresolved
}
