package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average of values over period. Row i is
// defined only when the period values ending at i are all defined; every
// other row is NaN. A gap therefore blanks the windows that cover it instead
// of poisoning the rest of the series.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	start := 0
	for start < len(values) {
		if math.IsNaN(values[start]) {
			start++

			continue
		}

		end := start
		for end < len(values) && !math.IsNaN(values[end]) {
			end++
		}

		// talib.Sma indexes past the slice when the run is shorter than the period
		if run := values[start:end]; len(run) >= period {
			averaged := talib.Sma(run, period)
			copy(out[start+period-1:end], averaged[period-1:])
		}

		start = end
	}

	return out
}

// RollingMean averages the defined values among the last window rows ending
// at each row. A row is NaN when fewer than minPeriods of those values are
// defined.
func RollingMean(values []float64, window int, minPeriods int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}

	if minPeriods < 1 {
		minPeriods = 1
	}

	sum := 0.0
	count := 0

	for i, v := range values {
		if !math.IsNaN(v) {
			sum += v
			count++
		}

		if i >= window {
			if old := values[i-window]; !math.IsNaN(old) {
				sum -= old
				count--
			}
		}

		if count >= minPeriods {
			out[i] = sum / float64(count)
		}
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
