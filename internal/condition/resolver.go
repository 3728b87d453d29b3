package condition

import (
	"math"

	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// OffsetResolver maps a decision row to the rows its operands are read from.
// Predicates are written once against this interface; each framing decides
// where "the open that is known at decision time" and "the last finalized
// close" live in the table.
type OffsetResolver interface {
	// Rows lists the decision rows this framing evaluates, in order.
	Rows() []int
	// Open returns the instrument open that is known at decision time.
	Open(row int, instrument types.Instrument) float64
	// Close returns the last finalized instrument close.
	Close(row int, instrument types.Instrument) float64
	// Indicator returns a close-derived indicator as of the last finalized close.
	Indicator(row int, column []float64) float64
	// OpenFeature returns an open-derived indicator for the open known at decision time.
	OpenFeature(row int, column []float64) float64
}

// ShiftResolver is the backtest framing. Every row of the table is a decision
// row; tomorrow's open-side values are shifted back one row so that row i
// holds what will be known at the next open.
type ShiftResolver struct {
	series types.BarSeries
}

// NewShiftResolver builds the backtest framing over series.
func NewShiftResolver(series types.BarSeries) *ShiftResolver {
	return &ShiftResolver{series: series}
}

// Rows returns every row of the table.
func (r *ShiftResolver) Rows() []int {
	rows := make([]int, len(r.series))
	for i := range rows {
		rows[i] = i
	}

	return rows
}

// Open reads the next row's open.
func (r *ShiftResolver) Open(row int, instrument types.Instrument) float64 {
	if row+1 >= len(r.series) || row+1 < 0 {
		return math.NaN()
	}

	return r.series[row+1].Instrument(instrument).Open
}

// Close reads the same row's close.
func (r *ShiftResolver) Close(row int, instrument types.Instrument) float64 {
	if row < 0 || row >= len(r.series) {
		return math.NaN()
	}

	return r.series[row].Instrument(instrument).Close
}

// Indicator reads the same row.
func (r *ShiftResolver) Indicator(row int, column []float64) float64 {
	return at(column, row)
}

// OpenFeature reads the next row.
func (r *ShiftResolver) OpenFeature(row int, column []float64) float64 {
	return at(column, row+1)
}

// RelativeRowResolver is the live framing. Only the last row, the synthetic
// today row holding just the opens, is a decision row; closes and indicators
// come from the row before it.
type RelativeRowResolver struct {
	series types.BarSeries
}

// NewRelativeRowResolver builds the live framing over series, whose last row
// is today.
func NewRelativeRowResolver(series types.BarSeries) *RelativeRowResolver {
	return &RelativeRowResolver{series: series}
}

// Rows returns the last row only.
func (r *RelativeRowResolver) Rows() []int {
	if len(r.series) == 0 {
		return nil
	}

	return []int{r.Last()}
}

// Last is today's row.
func (r *RelativeRowResolver) Last() int {
	return len(r.series) - 1
}

// SecondToLast is yesterday's row, the last finalized close.
func (r *RelativeRowResolver) SecondToLast() int {
	return len(r.series) - 2
}

// ThirdToLast is the day before yesterday.
func (r *RelativeRowResolver) ThirdToLast() int {
	return len(r.series) - 3
}

// Open reads today's open.
func (r *RelativeRowResolver) Open(_ int, instrument types.Instrument) float64 {
	last := r.Last()
	if last < 0 {
		return math.NaN()
	}

	return r.series[last].Instrument(instrument).Open
}

// Close reads yesterday's close.
func (r *RelativeRowResolver) Close(_ int, instrument types.Instrument) float64 {
	prev := r.SecondToLast()
	if prev < 0 {
		return math.NaN()
	}

	return r.series[prev].Instrument(instrument).Close
}

// Indicator reads yesterday's value.
func (r *RelativeRowResolver) Indicator(_ int, column []float64) float64 {
	return at(column, r.SecondToLast())
}

// OpenFeature reads today's value.
func (r *RelativeRowResolver) OpenFeature(_ int, column []float64) float64 {
	return at(column, r.Last())
}

func at(column []float64, row int) float64 {
	if row < 0 || row >= len(column) {
		return math.NaN()
	}

	return column[row]
}

var (
	_ OffsetResolver = (*ShiftResolver)(nil)
	_ OffsetResolver = (*RelativeRowResolver)(nil)
)
