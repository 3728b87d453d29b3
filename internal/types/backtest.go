package types

import "time"

// BacktestRow is one day of a backtest result.
type BacktestRow struct {
	Date           time.Time `json:"date" yaml:"date" csv:"date"`
	RawSignal      Signal    `json:"raw_signal" yaml:"raw_signal" csv:"raw_signal"`
	Signal         Signal    `json:"signal" yaml:"signal" csv:"signal"`
	TradeDay       bool      `json:"trade_day" yaml:"trade_day" csv:"trade_day"`
	SafeAsset      SafeAsset `json:"safe_asset" yaml:"safe_asset" csv:"safe_asset"`
	StrategyReturn float64   `json:"strategy_return" yaml:"strategy_return" csv:"strategy_return"`
	StrategyNAV    float64   `json:"strategy_nav" yaml:"strategy_nav" csv:"strategy_nav"`
}

// BacktestResult is the date-indexed output of a backtest with the warm-up
// rows removed.
type BacktestResult struct {
	Rows  []BacktestRow `json:"rows" yaml:"rows"`
	Stats BacktestStats `json:"stats" yaml:"stats"`
}

// Signals returns the signal column.
func (r BacktestResult) Signals() []Signal {
	signals := make([]Signal, len(r.Rows))
	for i, row := range r.Rows {
		signals[i] = row.Signal
	}

	return signals
}

// NAV returns the NAV column.
func (r BacktestResult) NAV() []float64 {
	nav := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		nav[i] = row.StrategyNAV
	}

	return nav
}
