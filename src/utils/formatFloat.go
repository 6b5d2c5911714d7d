package utils

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v the shortest way that round-trips, always keeping a
// decimal point: 80 -> "80.0", 4.5 -> "4.5".
func FormatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
