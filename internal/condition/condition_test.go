package condition

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

// marketState is one decision's worth of operands.
type marketState struct {
	qqqOpen, qqqClose, vixOpen, vixClose float64

	qqqYear, qqqLong, qqqShort             float64
	vixShort, vixLong, vixShort3, vixLong3 float64
	vixChange, vixOpenClose                float64
}

// quiet is a calm bull market: every predicate is defined and the equity
// index is well above its averages.
func quiet() marketState {
	return marketState{
		qqqOpen: 101, qqqClose: 100, vixOpen: 15, vixClose: 15,
		qqqYear: 90, qqqLong: 98, qqqShort: 100,
		vixShort: 15, vixLong: 15, vixShort3: 15, vixLong3: 15,
		vixChange: 0, vixOpenClose: 0,
	}
}

// stubResolver serves a fixed market state for row 0.
type stubResolver struct {
	state marketState
}

func (r stubResolver) Rows() []int { return []int{0} }

func (r stubResolver) Open(_ int, instrument types.Instrument) float64 {
	if instrument == types.InstrumentVIX {
		return r.state.vixOpen
	}

	return r.state.qqqOpen
}

func (r stubResolver) Close(_ int, instrument types.Instrument) float64 {
	if instrument == types.InstrumentVIX {
		return r.state.vixClose
	}

	return r.state.qqqClose
}

func (r stubResolver) Indicator(row int, column []float64) float64 { return column[row] }

func (r stubResolver) OpenFeature(row int, column []float64) float64 { return column[row] }

func (s marketState) evaluate() Conditions {
	set := indicator.Set{
		QQQSMAYear:   []float64{s.qqqYear},
		QQQSMALong:   []float64{s.qqqLong},
		QQQSMAShort:  []float64{s.qqqShort},
		GLDSMA:       []float64{math.NaN()},
		VIXSMAShort:  []float64{s.vixShort},
		VIXSMALong:   []float64{s.vixLong},
		VIXSMAShort3: []float64{s.vixShort3},
		VIXSMALong3:  []float64{s.vixLong3},
		VIXChange:    []float64{s.vixChange},
		VIXOpenClose: []float64{s.vixOpenClose},
	}

	return EvaluateRow(stubResolver{state: s}, set, 0)
}

type ConditionTestSuite struct {
	suite.Suite
}

func TestConditionSuite(t *testing.T) {
	suite.Run(t, new(ConditionTestSuite))
}

func (suite *ConditionTestSuite) TestQuietBullMarket() {
	c := quiet().evaluate()

	suite.Equal(True, c.QQQYearUp)
	suite.Equal(False, c.QQQYearDown)
	suite.Equal(True, c.QQQUpTrend)
	suite.Equal(True, c.LevCond)
	suite.Equal(False, c.SafeCond)
	suite.Equal(False, c.CondUp)
	suite.Equal(False, c.CondDown)
}

func (suite *ConditionTestSuite) TestExtremeVolatilityIsLeverage() {
	s := quiet()
	s.vixOpen, s.vixClose = 70, 70
	s.vixShort, s.vixLong, s.vixShort3, s.vixLong3 = 70, 70, 70, 70
	s.qqqClose, s.qqqOpen = 80, 79

	c := s.evaluate()

	suite.Equal(True, c.VIXAbove66)
	suite.Equal(False, c.VIXBelow60)
	suite.Equal(True, c.VIXAbove32)
	suite.Equal(True, c.LevCond)
	suite.Equal(False, c.SafeCond)
	suite.Equal(False, c.CondDown)
}

func (suite *ConditionTestSuite) TestBearMarketIsSafe() {
	s := quiet()
	s.qqqClose, s.qqqOpen = 80, 79
	s.qqqYear, s.qqqLong, s.qqqShort = 100, 90, 80
	s.vixOpen, s.vixClose = 25, 25

	c := s.evaluate()

	suite.Equal(True, c.QQQYearDown)
	suite.Equal(True, c.QQQDownTrend)
	suite.Equal(True, c.VIXAbove23)
	suite.Equal(True, c.VIXBelow60)
	suite.Equal(True, c.SafeCond)
	suite.Equal(False, c.LevCond)
	suite.Equal(False, c.VIXNoNeedSafe)
}

func (suite *ConditionTestSuite) TestVolatilityJumpIsCondDown() {
	s := quiet()
	s.vixOpen, s.vixClose = 40, 33
	s.vixChange = 0.25

	c := s.evaluate()

	suite.Equal(True, c.VIXUpMuch)
	suite.Equal(True, c.VIXAbove32)
	suite.Equal(True, c.CondDown)
}

func (suite *ConditionTestSuite) TestVolatilityFadeIsCondUp() {
	s := quiet()
	s.vixOpen, s.vixClose = 34, 36
	s.vixOpenClose = -0.05
	s.vixShort3, s.vixLong3 = 34, 40

	c := s.evaluate()

	suite.Equal(True, c.VIXDownToday)
	suite.Equal(True, c.VIXDownSmooth)
	suite.Equal(True, c.VIXAbove32)
	suite.Equal(True, c.CondUp)
}

func (suite *ConditionTestSuite) TestVolatilitySell() {
	s := quiet()
	s.vixShort, s.vixLong = 25, 20
	suite.Equal(True, s.evaluate().VIXSell)

	s = quiet()
	s.vixOpen, s.vixLong = 25, 20
	suite.Equal(True, s.evaluate().VIXSell)

	s = quiet()
	s.vixShort, s.vixLong = 23, 20
	suite.Equal(False, s.evaluate().VIXSell)
}

func (suite *ConditionTestSuite) TestNoNeedSafe() {
	s := quiet()
	s.vixOpen, s.vixClose = 55, 55
	s.vixShort3, s.vixLong3 = 50, 60
	s.vixOpenClose = 0.01

	c := s.evaluate()

	suite.Equal(True, c.VIXDownToday2)
	suite.Equal(True, c.VIXDownSmooth2)
	suite.Equal(True, c.VIXNoNeedSafe)
}

func (suite *ConditionTestSuite) TestOpenGaps() {
	s := quiet()
	s.qqqOpen, s.qqqClose = 101, 100
	c := s.evaluate()
	suite.Equal(True, c.QQQOpenCloseBig)
	suite.Equal(False, c.QQQOpenCloseLow)
	suite.Equal(True, c.VIXBelow21)

	s.qqqOpen = 95
	c = s.evaluate()
	suite.Equal(False, c.QQQOpenCloseBig)
	suite.Equal(True, c.QQQOpenCloseLow)
	suite.Equal(True, c.VIXAbove23)
}

func (suite *ConditionTestSuite) TestDiagnostics() {
	s := quiet()
	s.vixOpen = 30
	s.qqqClose, s.qqqLong = 100, 97
	s.qqqOpen = 101

	c := s.evaluate()

	suite.Equal(True, c.VIXMidRange)
	suite.Equal(True, c.QQQUpTrendMid)
	suite.Equal(False, c.QQQDownTrendMid)
}

func (suite *ConditionTestSuite) TestSingleTerms() {
	s := quiet()
	s.qqqClose, s.qqqOpen = 80, 101
	s.vixOpen, s.vixClose = 40, 15

	c := s.evaluate()

	suite.Equal(True, c.QQQYearDownClose)
	suite.Equal(False, c.QQQYearDownOpen)
	suite.Equal(True, c.QQQYearDown)
	suite.Equal(True, c.VIXOpenAbove32)
	suite.Equal(False, c.VIXCloseAbove32)
	suite.Equal(True, c.VIXAbove32)
	suite.Len(c.Named(), 25)
}

func (suite *ConditionTestSuite) TestUndefinedOperandsPropagate() {
	nan := math.NaN()
	s := marketState{
		qqqOpen: nan, qqqClose: nan, vixOpen: nan, vixClose: nan,
		qqqYear: nan, qqqLong: nan, qqqShort: nan,
		vixShort: nan, vixLong: nan, vixShort3: nan, vixLong3: nan,
		vixChange: nan, vixOpenClose: nan,
	}

	for _, named := range s.evaluate().Named() {
		suite.Equal(Unknown, named.Value, named.Name)
	}
}

func (suite *ConditionTestSuite) TestDefinedBranchWinsOverUnknown() {
	s := quiet()
	s.qqqYear = math.NaN()
	s.qqqShort, s.qqqLong = math.NaN(), math.NaN()
	s.vixOpen, s.vixClose = 70, 70

	c := s.evaluate()

	suite.Equal(Unknown, c.QQQYearUp)
	suite.Equal(True, c.VIXAbove66)
	suite.Equal(True, c.LevCond)
}

func (suite *ConditionTestSuite) TestNamedCatalogue() {
	named := quiet().evaluate().Named()

	suite.Len(named, 25)
	suite.Equal("qqq_open_close_big", named[0].Name)
	suite.Equal("VIX_b_66", named[13].Name)
	suite.Equal("safe_cond", named[21].Name)
	suite.Equal("qqq_down_trend_mid", named[24].Name)
}

func (suite *ConditionTestSuite) TestEvaluateAlignsWithRows() {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	series := make(types.BarSeries, 4)

	for i := range series {
		bar := types.NewMissingDailyBar(start.AddDate(0, 0, i))
		bar.QQQ.Open, bar.QQQ.Close = 100, 100
		bar.VIX.Open, bar.VIX.Close = 15, 15
		series[i] = bar
	}

	set := indicator.Compute(series, indicator.DefaultWindows())

	backtest := Evaluate(NewShiftResolver(series), set)
	suite.Len(backtest, 4)
	// Tomorrow's open is unknown on the last row
	suite.Equal(Unknown, backtest[3].QQQOpenCloseBig)
	suite.Equal(False, backtest[2].QQQOpenCloseBig)

	live := Evaluate(NewRelativeRowResolver(series), set)
	suite.Len(live, 1)
	suite.Equal(False, live[0].QQQOpenCloseBig)
}
