package engine

import (
	"math"

	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/signal"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Returns is the per-row return table of a backtest. Every slice has one
// entry per bar row.
type Returns struct {
	QQQ []float64
	GLD []float64
	SHY []float64

	// Leveraged is the daily leveraged equity return net of the management fee.
	Leveraged []float64
	// OpenToClose is the leveraged return from today's open to today's close,
	// earned on the day the sleeve is bought at the open.
	OpenToClose []float64
	// PriorCloseToOpen is the leveraged return from yesterday's close to
	// today's open, earned on the day the sleeve is sold at the open.
	PriorCloseToOpen []float64

	SafeAsset []types.SafeAsset
	Safe      []float64

	TradeDay []bool
	Strategy []float64
}

// ComposeReturns builds the blended daily return of the strategy from the
// resolved signals. Row i earns according to the position decided at i-1.
// An undefined blended return counts as a flat day.
func ComposeReturns(
	series types.BarSeries,
	set indicator.Set,
	signals []types.Signal,
	config strategy.Config,
	fee commission_fee.CommissionFee,
) Returns {
	n := series.Len()
	leverage := config.TargetLeverage
	dailyFee := config.DailyFee()
	port := 1 - config.SafeRatio

	qqqOpen := series.Column(types.InstrumentQQQ, types.FieldOpen)
	qqqClose := series.Column(types.InstrumentQQQ, types.FieldClose)
	vixOpen := series.Column(types.InstrumentVIX, types.FieldOpen)
	gldClose := series.Column(types.InstrumentGLD, types.FieldClose)

	r := Returns{
		QQQ:              indicator.PctChange(qqqClose),
		GLD:              indicator.PctChange(gldClose),
		SHY:              indicator.PctChange(series.Column(types.InstrumentSHY, types.FieldClose)),
		Leveraged:        make([]float64, n),
		OpenToClose:      make([]float64, n),
		PriorCloseToOpen: make([]float64, n),
		SafeAsset:        make([]types.SafeAsset, n),
		Safe:             make([]float64, n),
		TradeDay:         signal.TradeDays(signals),
		Strategy:         make([]float64, n),
	}

	priorClose := indicator.OpenToPriorClose(qqqOpen, qqqClose)

	for i := 0; i < n; i++ {
		r.Leveraged[i] = leverage*r.QQQ[i] - dailyFee
		r.OpenToClose[i] = (qqqClose[i]/qqqOpen[i]-1)*leverage - dailyFee
		r.PriorCloseToOpen[i] = priorClose[i]*leverage - dailyFee

		r.SafeAsset[i] = SelectSafeAsset(gldClose[i], set.GLDSMA[i], vixOpen[i], config.HighVolatilityBondThreshold)
		if r.SafeAsset[i] == types.SafeAssetGold {
			r.Safe[i] = r.GLD[i]
		} else {
			r.Safe[i] = r.SHY[i]
		}

		leveragedYesterday := i > 0 && signals[i-1] == types.SignalLeverage

		var ret float64

		switch {
		case leveragedYesterday && r.TradeDay[i]:
			ret = r.OpenToClose[i] * port
		case leveragedYesterday:
			ret = r.Leveraged[i] * port
		case r.TradeDay[i]:
			ret = (r.PriorCloseToOpen[i] + config.ExitOpenAdjustment) * port
		default:
			ret = r.Safe[i] * port
		}

		if r.TradeDay[i] {
			ret -= fee.Calculate(port)
		}

		ret += r.Safe[i] * config.SafeRatio

		if math.IsNaN(ret) || math.IsInf(ret, 0) {
			ret = 0
		}

		r.Strategy[i] = ret
	}

	return r
}

// SelectSafeAsset picks gold while it trades above its average and the
// volatility open is at or below threshold, and the bond otherwise.
func SelectSafeAsset(gldClose float64, gldAverage float64, vixOpen float64, threshold float64) types.SafeAsset {
	if above(vixOpen, threshold) {
		return types.SafeAssetBond
	}

	if above(gldClose, gldAverage) {
		return types.SafeAssetGold
	}

	return types.SafeAssetBond
}

// above compares two values that may be undefined; undefined is never above.
func above(a float64, b float64) bool {
	return condition.Greater(a, b).IsTrue()
}

// NAV compounds returns into a value curve starting from capital.
func NAV(returns []float64, capital float64) []float64 {
	nav := make([]float64, len(returns))
	value := capital

	for i, r := range returns {
		value *= 1 + r
		nav[i] = value
	}

	return nav
}
