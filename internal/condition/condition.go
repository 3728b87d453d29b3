package condition

import (
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Thresholds of the rule set. They are part of the strategy definition and
// are not tuned at runtime.
const (
	openGapUp       = 1.005
	openGapDown     = 0.96
	vixJump         = 0.2
	vixSellRatio    = 1.2
	vixOpenDrop     = -0.03
	vixOpenCalm     = 0.05
	vixSmoothDown   = 0.97
	vixSmoothDown2  = 0.95
	vixPanic        = 50
	qqqTrendUp      = 0.99
	qqqTrendDown    = 0.95
	qqqYearUp       = 1.03
	qqqYearDown     = 0.99
	vixExtreme      = 66
	vixCeiling      = 60
	vixCalm         = 21
	vixElevated     = 23
	vixHigh         = 32
	vixMidLow       = 26
	vixMidHigh      = 33
	qqqTrendUpMid   = 1.02
	qqqTrendDownMid = 0.95
)

// Conditions is the predicate catalogue evaluated for one decision row.
type Conditions struct {
	QQQOpenCloseBig Tri
	QQQOpenCloseLow Tri
	VIXUpMuch       Tri
	VIXSell         Tri
	VIXDownToday    Tri
	VIXDownToday2   Tri
	VIXDownSmooth   Tri
	VIXDownSmooth2  Tri
	VIXNoNeedSafe   Tri
	QQQUpTrend      Tri
	QQQDownTrend    Tri
	QQQYearUp       Tri
	QQQYearDown     Tri
	VIXAbove66      Tri
	VIXBelow60      Tri
	VIXBelow21      Tri
	VIXAbove23      Tri
	VIXAbove32      Tri
	CondUp          Tri
	CondDown        Tri
	LevCond         Tri
	SafeCond        Tri

	// Diagnostic only; never part of the signal.
	VIXMidRange     Tri
	QQQUpTrendMid   Tri
	QQQDownTrendMid Tri

	// Single terms of qqq_year_down and VIX_b_32. The trading-signal formula
	// groups them on their own and they are not part of the catalogue.
	QQQYearDownClose Tri
	QQQYearDownOpen  Tri
	VIXOpenAbove32   Tri
	VIXCloseAbove32  Tri
}

// Named is one predicate value in a trace.
type Named struct {
	Name  string `json:"name" yaml:"name"`
	Value Tri    `json:"value" yaml:"value"`
}

// Named lists every predicate under its rule-set name, in catalogue order.
func (c Conditions) Named() []Named {
	return []Named{
		{"qqq_open_close_big", c.QQQOpenCloseBig},
		{"qqq_open_close_low", c.QQQOpenCloseLow},
		{"vix_up_much", c.VIXUpMuch},
		{"vix_sell", c.VIXSell},
		{"vix_down_today", c.VIXDownToday},
		{"vix_down_today2", c.VIXDownToday2},
		{"vix_down_smooth", c.VIXDownSmooth},
		{"vix_down_smooth2", c.VIXDownSmooth2},
		{"vix_no_need_safe", c.VIXNoNeedSafe},
		{"qqq_up_trend", c.QQQUpTrend},
		{"qqq_down_trend", c.QQQDownTrend},
		{"qqq_year_up", c.QQQYearUp},
		{"qqq_year_down", c.QQQYearDown},
		{"VIX_b_66", c.VIXAbove66},
		{"VIX_l_60", c.VIXBelow60},
		{"VIX_l_21", c.VIXBelow21},
		{"VIX_b_23", c.VIXAbove23},
		{"VIX_b_32", c.VIXAbove32},
		{"cond_up", c.CondUp},
		{"cond_down", c.CondDown},
		{"lev_cond", c.LevCond},
		{"safe_cond", c.SafeCond},
		{"vix_mid_range", c.VIXMidRange},
		{"qqq_up_trend_mid", c.QQQUpTrendMid},
		{"qqq_down_trend_mid", c.QQQDownTrendMid},
	}
}

// EvaluateRow evaluates the catalogue for one decision row. The resolver
// decides which table rows each operand comes from.
func EvaluateRow(r OffsetResolver, set indicator.Set, row int) Conditions {
	qqqOpen := r.Open(row, types.InstrumentQQQ)
	vixOpen := r.Open(row, types.InstrumentVIX)
	qqqClose := r.Close(row, types.InstrumentQQQ)
	vixClose := r.Close(row, types.InstrumentVIX)

	qqqYear := r.Indicator(row, set.QQQSMAYear)
	qqqLong := r.Indicator(row, set.QQQSMALong)
	qqqShort := r.Indicator(row, set.QQQSMAShort)
	vixShort := r.Indicator(row, set.VIXSMAShort)
	vixLong := r.Indicator(row, set.VIXSMALong)
	vixShort3 := r.Indicator(row, set.VIXSMAShort3)
	vixLong3 := r.Indicator(row, set.VIXSMALong3)

	vixChange := r.OpenFeature(row, set.VIXChange)
	vixOpenClose := r.OpenFeature(row, set.VIXOpenClose)

	var c Conditions

	c.QQQOpenCloseBig = Greater(qqqOpen, qqqClose*openGapUp)
	c.QQQOpenCloseLow = Less(qqqOpen, qqqClose*openGapDown)

	c.VIXUpMuch = Greater(vixChange, vixJump).Or(Greater(vixOpenClose, vixJump))
	c.VIXSell = Greater(vixShort, vixSellRatio*vixLong).Or(Greater(vixOpen, vixSellRatio*vixLong))

	c.VIXDownToday = Less(vixOpenClose, vixOpenDrop)
	c.VIXDownToday2 = Less(vixOpenClose, vixOpenCalm)
	c.VIXDownSmooth = Less(vixShort3, vixSmoothDown*vixLong3)
	c.VIXDownSmooth2 = Less(vixShort3, vixSmoothDown2*vixLong3).
		And(Greater(vixClose, vixPanic).Or(Greater(vixOpen, vixPanic)))
	c.VIXNoNeedSafe = c.VIXDownToday2.And(c.VIXDownSmooth2)

	c.QQQUpTrend = Greater(qqqShort, qqqTrendUp*qqqLong)
	c.QQQDownTrend = Less(qqqShort, qqqTrendDown*qqqLong)
	c.QQQYearUp = Greater(qqqClose, qqqYearUp*qqqYear).And(Greater(qqqOpen, qqqYearUp*qqqYear))
	c.QQQYearDownClose = Less(qqqClose, qqqYearDown*qqqYear)
	c.QQQYearDownOpen = Less(qqqOpen, qqqYearDown*qqqYear)
	c.QQQYearDown = c.QQQYearDownClose.Or(c.QQQYearDownOpen)

	c.VIXAbove66 = Greater(vixClose, vixExtreme).And(Greater(vixOpen, vixExtreme))
	c.VIXBelow60 = Less(vixClose, vixCeiling).And(Less(vixOpen, vixCeiling))
	c.VIXBelow21 = Less(vixOpen, vixCalm).And(c.QQQOpenCloseBig)
	c.VIXAbove23 = Greater(vixOpen, vixElevated).Or(c.QQQOpenCloseLow)
	c.VIXOpenAbove32 = Greater(vixOpen, vixHigh)
	c.VIXCloseAbove32 = Greater(vixClose, vixHigh)
	c.VIXAbove32 = c.VIXOpenAbove32.Or(c.VIXCloseAbove32)

	c.CondUp = c.VIXAbove32.And(c.VIXDownToday).And(c.VIXDownSmooth)
	c.CondDown = c.VIXAbove32.And(c.VIXUpMuch.Or(c.VIXSell))

	c.LevCond = c.QQQYearUp.Or(c.QQQUpTrend.And(c.VIXBelow21)).Or(c.VIXAbove66)
	c.SafeCond = c.QQQYearDown.And(c.QQQDownTrend.Or(c.VIXAbove23)).And(c.VIXBelow60)

	c.VIXMidRange = Less(vixOpen, vixMidHigh).And(Greater(vixOpen, vixMidLow))
	c.QQQUpTrendMid = Greater(qqqClose, qqqTrendUpMid*qqqLong)
	c.QQQDownTrendMid = Less(qqqOpen, qqqTrendDownMid*qqqLong)

	return c
}

// Evaluate evaluates every decision row of the resolver. The result is
// aligned with r.Rows().
func Evaluate(r OffsetResolver, set indicator.Set) []Conditions {
	rows := r.Rows()
	out := make([]Conditions, len(rows))

	for i, row := range rows {
		out[i] = EvaluateRow(r, set, row)
	}

	return out
}
