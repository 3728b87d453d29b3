package signal

import (
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Combiner turns one row of predicates into a raw signal. Each predicate
// collapses to a plain bool as it enters the formula: undefined is false, so
// a negated undefined predicate is true.
type Combiner interface {
	// Name identifies the formula in logs and traces.
	Name() string
	// Combine returns safe, leverage or undefined.
	Combine(c condition.Conditions) types.Signal
}

func pick(safe bool, leverage bool) types.Signal {
	switch {
	case safe:
		return types.SignalSafe
	case leverage:
		return types.SignalLeverage
	default:
		return types.SignalUndefined
	}
}

// FullCombiner is the backtest formula:
//
//	safe     if (safe_cond AND NOT cond_up AND NOT vix_no_need_safe) OR cond_down
//	leverage if (lev_cond AND NOT cond_down) OR cond_up
type FullCombiner struct{}

// NewFullCombiner returns the backtest formula.
func NewFullCombiner() Combiner {
	return FullCombiner{}
}

func (FullCombiner) Name() string {
	return "full"
}

func (FullCombiner) Combine(c condition.Conditions) types.Signal {
	condUp := c.CondUp.IsTrue()
	condDown := c.CondDown.IsTrue()

	safe := (c.SafeCond.IsTrue() && !condUp && !c.VIXNoNeedSafe.IsTrue()) || condDown
	leverage := (c.LevCond.IsTrue() && !condDown) || condUp

	return pick(safe, leverage)
}

// LiveCombiner is the daily evaluator's formula, which groups the safe branch
// without the cond_up and vix_no_need_safe exclusions:
//
//	safe     if safe_cond OR cond_down
//	leverage if lev_cond
type LiveCombiner struct{}

// NewLiveCombiner returns the daily evaluator's formula.
func NewLiveCombiner() Combiner {
	return LiveCombiner{}
}

func (LiveCombiner) Name() string {
	return "live"
}

func (LiveCombiner) Combine(c condition.Conditions) types.Signal {
	return pick(c.SafeCond.IsTrue() || c.CondDown.IsTrue(), c.LevCond.IsTrue())
}

// TradingSignalCombiner is the formula of the single-shot trading signal. It
// splits qqq_year_down and VIX_b_32 into their close and open terms and
// binds them differently from the backtest formula:
//
//	up       = vix_open > 32 OR (vix_close > 32 AND vix_down_today AND vix_down_smooth)
//	down     = vix_open > 32 OR (vix_close > 32 AND (vix_up_much OR vix_sell))
//	safe     if qqq_close < 0.99*year
//	         OR (qqq_open < 0.99*year AND (qqq_down_trend OR VIX_b_23) AND VIX_l_60
//	             AND NOT up AND NOT vix_no_need_safe)
//	         OR down
//	leverage if qqq_year_up OR (qqq_up_trend AND VIX_l_21) OR VIX_b_66 OR (up AND NOT down)
type TradingSignalCombiner struct{}

// NewTradingSignalCombiner returns the single-shot trading signal formula.
func NewTradingSignalCombiner() Combiner {
	return TradingSignalCombiner{}
}

func (TradingSignalCombiner) Name() string {
	return "trading_signal"
}

func (TradingSignalCombiner) Combine(c condition.Conditions) types.Signal {
	openAbove32 := c.VIXOpenAbove32.IsTrue()
	closeAbove32 := c.VIXCloseAbove32.IsTrue()

	up := openAbove32 || (closeAbove32 && c.VIXDownToday.IsTrue() && c.VIXDownSmooth.IsTrue())
	down := openAbove32 || (closeAbove32 && (c.VIXUpMuch.IsTrue() || c.VIXSell.IsTrue()))

	safe := c.QQQYearDownClose.IsTrue() ||
		(c.QQQYearDownOpen.IsTrue() &&
			(c.QQQDownTrend.IsTrue() || c.VIXAbove23.IsTrue()) &&
			c.VIXBelow60.IsTrue() &&
			!up &&
			!c.VIXNoNeedSafe.IsTrue()) ||
		down

	leverage := c.QQQYearUp.IsTrue() ||
		(c.QQQUpTrend.IsTrue() && c.VIXBelow21.IsTrue()) ||
		c.VIXAbove66.IsTrue() ||
		(up && !down)

	return pick(safe, leverage)
}
