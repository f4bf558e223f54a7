package fst

// Basic types and the tropical semiring.

import (
	"math"
	"strconv"
)

// StateId identifies a state of an automaton. Valid states are always
// from 0 to NumStates()-1.
type StateId int32

// Label is an arc label, usually a symbol table key.
type Label int32

const (
	NoStateId StateId = -1 // An invalid state.
	Epsilon   Label   = 0  // The empty label.
	NoLabel   Label   = -1 // An invalid label.
)

// Weight is a tropical semiring weight: a cost in the negative natural
// log domain. Times is addition and Plus is min.
type Weight float32

const WEIGHT_SIZE = 32 // The bit size of Weight.

var (
	// WeightZero is the semiring zero (an impossible path).
	WeightZero = Weight(math.Inf(1))
	// WeightOne is the semiring one (a free path).
	WeightOne = Weight(0)
)

// IsZero reports whether w is the semiring zero.
func (w Weight) IsZero() bool { return math.IsInf(float64(w), 1) }

// Times extends a path by another weight.
func Times(a, b Weight) Weight {
	if a.IsZero() || b.IsZero() {
		return WeightZero
	}
	return a + b
}

// Plus picks the better of two alternative paths.
func Plus(a, b Weight) Weight {
	if b < a {
		return b
	}
	return a
}

// String formats w the way OpenFst text files do.
func (w Weight) String() string {
	if w.IsZero() {
		return "Infinity"
	}
	return strconv.FormatFloat(float64(w), 'g', -1, WEIGHT_SIZE)
}

// Set makes Weight usable as a flag.Value.
func (w *Weight) Set(s string) error {
	f, err := ParseWeight(s)
	if err == nil {
		*w = f
	}
	return err
}

// ParseWeight parses a weight, accepting OpenFst's "Infinity".
func ParseWeight(s string) (Weight, error) {
	f, err := strconv.ParseFloat(s, WEIGHT_SIZE)
	if err != nil {
		return 0, err
	}
	return Weight(f), nil
}
