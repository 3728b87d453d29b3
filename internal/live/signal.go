package live

import (
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/signal"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
)

// GetTradingSignal returns today's signal from history that ends yesterday
// and today's opening quotes. Today's predicates are read with the explicit
// last-row accessors and combined with the trading-signal formula; an
// undefined result keeps the previous resolved signal of the same formula.
func GetTradingSignal(history types.BarSeries, vixOpen float64, qqqOpen float64, now time.Time, config strategy.Config) (types.Signal, error) {
	series, err := prepare(history, now, qqqOpen, vixOpen, config)
	if err != nil {
		return types.SignalUndefined, err
	}

	set := indicator.Compute(series, config.Windows)

	resolver := condition.NewRelativeRowResolver(series)
	today := condition.EvaluateRow(resolver, set, resolver.Last())
	combiner := signal.NewTradingSignalCombiner()
	raw := combiner.Combine(today)

	// The shift framing at the third-to-last row is the last decision made
	// entirely from finished bars.
	previous := types.SignalUndefined
	if row := resolver.ThirdToLast(); row >= 0 {
		conditions := condition.Evaluate(condition.NewShiftResolver(series), set)
		previous = signal.Resolve(signal.Raw(conditions, combiner))[row]
	}

	return signal.FillFrom(raw, previous), nil
}

// prepare appends today's row and checks there is enough history for every
// window.
func prepare(history types.BarSeries, today time.Time, qqqOpen float64, vixOpen float64, config strategy.Config) (types.BarSeries, error) {
	if err := history.Validate(); err != nil {
		return nil, err
	}

	series := history.AppendToday(today, qqqOpen, vixOpen)

	required := config.Windows.Longest() + 1
	if series.Len() < required {
		return nil, errors.NewInsufficientDataErrorf(required, series.Len(),
			"not enough historical data to calculate signal: need %d rows including today, got %d", required, series.Len())
	}

	return series, nil
}
