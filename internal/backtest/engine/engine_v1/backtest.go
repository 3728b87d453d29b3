package engine

import (
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/signal"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
)

// Backtest replays the rule set over series and returns the result with the
// warm-up rows removed. It is a pure function of its inputs.
func Backtest(series types.BarSeries, config strategy.Config) (types.BacktestResult, error) {
	if err := series.Validate(); err != nil {
		return types.BacktestResult{}, err
	}

	required := config.Windows.Longest() + 1
	if series.Len() < required {
		return types.BacktestResult{}, errors.NewInsufficientDataErrorf(required, series.Len(),
			"backtest needs %d rows of history, got %d", required, series.Len())
	}

	set := indicator.Compute(series, config.Windows)
	conditions := condition.Evaluate(condition.NewShiftResolver(series), set)
	raw := signal.Raw(conditions, signal.NewFullCombiner())
	signals := signal.Resolve(raw)

	returns := ComposeReturns(series, set, signals, config, config.CommissionFee())
	nav := NAV(returns.Strategy, config.InitialCapital)

	warmUp := config.Windows.QQQYear
	rows := make([]types.BacktestRow, 0, series.Len()-warmUp)

	for i := warmUp; i < series.Len(); i++ {
		rows = append(rows, types.BacktestRow{
			Date:           series[i].Date,
			RawSignal:      raw[i],
			Signal:         signals[i],
			TradeDay:       returns.TradeDay[i],
			SafeAsset:      returns.SafeAsset[i],
			StrategyReturn: returns.Strategy[i],
			StrategyNAV:    nav[i],
		})
	}

	qqqClose := series.Column(types.InstrumentQQQ, types.FieldClose)[warmUp:]

	return types.BacktestResult{
		Rows:  rows,
		Stats: ComputeStats(rows, qqqClose, config.InitialCapital),
	}, nil
}
