// Package fstlm scores sentences against n-gram language models stored
// as weighted automata and converts back-off automata to ARPA text.
package fstlm

// Weight conversions between automaton costs and ARPA numbers.

import (
	"math"
	"strconv"

	"github.com/alongwithyou/fstLM/fst"
)

// ARPALog0 replaces -inf in ARPA files following the convention of
// SRILM.
const ARPALog0 = -99

// Log10Prob converts a natural-log cost to an ARPA base-10
// log-probability. An infinite cost gives ARPALog0.
func Log10Prob(w fst.Weight) float64 {
	if w.IsZero() {
		return ARPALog0
	}
	x := -float64(w) / math.Ln10
	if x == 0 {
		// Avoid printing "-0".
		return 0
	}
	return x
}

// FormatARPA formats w as an ARPA number with 6 significant digits.
func FormatARPA(w fst.Weight) string {
	return strconv.FormatFloat(Log10Prob(w), 'g', 6, 64)
}

// CostOfLog10 converts an ARPA base-10 log-probability to a cost. Any x
// no greater than log0 is treated as log(0).
func CostOfLog10(x, log0 float64) fst.Weight {
	if x <= log0 || math.IsInf(x, -1) {
		return fst.WeightZero
	}
	return fst.Weight(-x * math.Ln10)
}

// LogProb converts a cost to a natural-log probability.
func LogProb(w fst.Weight) float64 {
	if w.IsZero() {
		return math.Inf(-1)
	}
	return -float64(w)
}
