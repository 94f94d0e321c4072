package format

import (
	"strconv"
	"strings"
)

// WeightMultiplier is the fixed-point scale used for node weights: a weight
// stores percentage/100 multiplied by this constant, so a weight of 10000
// means 100% and a weight of 123 means 1.23%.
const WeightMultiplier = 10000

// WeightPercent renders a fixed-point weight as a percentage with at most two
// fractional digits and no trailing zeros: 1.2, never 1.20.
func WeightPercent(weight uint64) string {
	s := strconv.FormatFloat(float64(weight)/100.0, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
