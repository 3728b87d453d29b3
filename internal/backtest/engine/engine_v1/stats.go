package engine

import (
	"math"

	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/shopspring/decimal"
)

const daysPerYear = 365.25

// ComputeStats summarises result rows. qqqClose is the equity close over the
// same rows and feeds the buy-and-hold comparison. The run ID and timestamp
// are left for the caller to fill.
func ComputeStats(rows []types.BacktestRow, qqqClose []float64, initialCapital float64) types.BacktestStats {
	stats := types.BacktestStats{
		InitialCapital: initialCapital,
	}

	if len(rows) == 0 {
		return stats
	}

	first := rows[0]
	last := rows[len(rows)-1]

	stats.StartDate = first.Date
	stats.EndDate = last.Date
	stats.TradingDays = len(rows)
	stats.FinalNAV = roundCurrency(last.StrategyNAV)

	// The NAV before the first kept row is the base of the window.
	base := first.StrategyNAV / (1 + first.StrategyReturn)
	stats.TotalReturn = roundRatio(last.StrategyNAV/base - 1)

	years := last.Date.Sub(first.Date).Hours() / 24 / daysPerYear
	if years > 0 && base > 0 && last.StrategyNAV > 0 {
		stats.CAGR = roundRatio(math.Pow(last.StrategyNAV/base, 1/years) - 1)
	}

	stats.MaxDrawdown = roundRatio(MaxDrawdown(navOf(rows)))

	for _, row := range rows {
		if row.TradeDay {
			stats.NumberOfTrades++
		}

		if row.Signal == types.SignalLeverage {
			stats.LeverageDays++
		}
	}

	stats.BuyAndHoldReturn = roundRatio(BuyAndHoldReturn(qqqClose))

	return stats
}

// MaxDrawdown returns the largest peak-to-trough fall of nav as a positive
// fraction of the peak.
func MaxDrawdown(nav []float64) float64 {
	peak := math.Inf(-1)
	drawdown := 0.0

	for _, v := range nav {
		if math.IsNaN(v) {
			continue
		}

		if v > peak {
			peak = v
		}

		if peak > 0 {
			drawdown = math.Max(drawdown, (peak-v)/peak)
		}
	}

	return drawdown
}

// BuyAndHoldReturn returns the return of holding from the first defined close
// to the last defined close.
func BuyAndHoldReturn(close []float64) float64 {
	first, last := math.NaN(), math.NaN()

	for _, v := range close {
		if math.IsNaN(v) {
			continue
		}

		if math.IsNaN(first) {
			first = v
		}

		last = v
	}

	if math.IsNaN(first) || first == 0 {
		return 0
	}

	return last/first - 1
}

func navOf(rows []types.BacktestRow) []float64 {
	nav := make([]float64, len(rows))
	for i, row := range rows {
		nav[i] = row.StrategyNAV
	}

	return nav
}

func roundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundRatio(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return decimal.NewFromFloat(v).Round(6).InexactFloat64()
}
