package indicator

import "math"

// PctChange returns values[i]/values[i-1]-1. Undefined inputs are padded from
// the last defined value, and rows without a result (row 0, rows at or before
// the first defined value, undefined rows) are 0.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	last := math.NaN()

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}

		if !math.IsNaN(last) {
			out[i] = v/last - 1
		}

		last = v
	}

	return out
}

// OpenToPriorClose returns open[i]/close[i-1]-1 without any padding. Row 0 and
// rows touching an undefined value are NaN.
func OpenToPriorClose(open []float64, close []float64) []float64 {
	out := nanSlice(len(open))

	for i := 1; i < len(open) && i < len(close)+1; i++ {
		out[i] = open[i]/close[i-1] - 1
	}

	return out
}
