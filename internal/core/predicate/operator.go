// Package predicate holds the comparison operators the engine evaluates and
// the rule that turns a block's min/max bounds into a three-way decision
package predicate

import (
	"math"
	"strings"

	perr "findtime/internal/platform/errors"
)

// Operator is a comparison between an hourly value and a threshold
type Operator uint8

const (
	// Invalid is the zero value, never produced by ParseOperator
	Invalid Operator = iota
	Greater
	Less
	Equal
	NotEqual
	GreaterEqual
	LessEqual
)

var symbols = [...]string{
	Invalid:      "",
	Greater:      ">",
	Less:         "<",
	Equal:        "==",
	NotEqual:     "!=",
	GreaterEqual: ">=",
	LessEqual:    "<=",
}

// ParseOperator accepts the six comparison symbols
func ParseOperator(s string) (Operator, error) {
	s = strings.TrimSpace(s)
	for i, sym := range symbols {
		if sym != "" && sym == s {
			return Operator(i), nil
		}
	}
	return Invalid, perr.InvalidArgf("unsupported predicate %q, want one of > < == != >= <=", s)
}

func (o Operator) String() string {
	if int(o) < len(symbols) && o != Invalid {
		return symbols[o]
	}
	return "invalid"
}

// Valid reports whether o is one of the six operators
func (o Operator) Valid() bool { return o > Invalid && o <= LessEqual }

// Prunable reports whether the engine decides o from min/max bounds
// != is excluded although min > t or max < t would prove it true; such queries
// always go to the exact hourly evaluation
func (o Operator) Prunable() bool { return o.Valid() && o != NotEqual }

// Eval applies o to v and t using IEEE semantics
func (o Operator) Eval(v, t float64) bool {
	switch o {
	case Greater:
		return v > t
	case Less:
		return v < t
	case Equal:
		return v == t
	case NotEqual:
		return v != t
	case GreaterEqual:
		return v >= t
	case LessEqual:
		return v <= t
	}
	return false
}

// Holds is Eval for observed data; a missing or NaN value never holds
func (o Operator) Holds(v float64, ok bool, t float64) bool {
	if !ok || math.IsNaN(v) {
		return false
	}
	return o.Eval(v, t)
}
