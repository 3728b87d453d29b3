package engine

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/mocks"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BacktestTestSuite struct {
	suite.Suite
	series types.BarSeries
	config strategy.Config
}

func TestBacktestSuite(t *testing.T) {
	suite.Run(t, new(BacktestTestSuite))
}

func (suite *BacktestTestSuite) SetupTest() {
	generatorConfig := mocks.DefaultConfig()
	generatorConfig.Count = 400
	generatorConfig.VIXSpikeRate = 0.05

	suite.series = mocks.NewBarGenerator(7).Generate(generatorConfig)
	suite.config = strategy.DefaultConfig()
}

func (suite *BacktestTestSuite) TestDropsWarmUpRows() {
	result, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	warmUp := suite.config.Windows.QQQYear
	suite.Len(result.Rows, suite.series.Len()-warmUp)
	suite.Equal(suite.series[warmUp].Date, result.Rows[0].Date)
	suite.Equal(suite.series[suite.series.Len()-1].Date, result.Rows[len(result.Rows)-1].Date)
}

func (suite *BacktestTestSuite) TestNAVCompoundsReturns() {
	result, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	for i := 1; i < len(result.Rows); i++ {
		prev, cur := result.Rows[i-1], result.Rows[i]
		suite.InEpsilon(prev.StrategyNAV*(1+cur.StrategyReturn), cur.StrategyNAV, 1e-9, "row %d", i)
	}

	for i, row := range result.Rows {
		suite.Greater(row.StrategyNAV, 0.0, "row %d", i)
		suite.False(math.IsNaN(row.StrategyReturn), "row %d", i)
	}
}

func (suite *BacktestTestSuite) TestSignalsAreResolved() {
	result, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	for i, row := range result.Rows {
		suite.True(row.Signal.Defined(), "row %d", i)

		if row.RawSignal.Defined() {
			suite.Equal(row.RawSignal, row.Signal, "row %d", i)
		} else if i > 0 {
			suite.Equal(result.Rows[i-1].Signal, row.Signal, "row %d", i)
		}
	}
}

func (suite *BacktestTestSuite) TestTradeDayFollowsFlip() {
	result, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	for i := 2; i < len(result.Rows); i++ {
		flipped := result.Rows[i-1].Signal != result.Rows[i-2].Signal
		suite.Equal(flipped, result.Rows[i].TradeDay, "row %d", i)
	}
}

func (suite *BacktestTestSuite) TestCommissionOnlyLowersNAV() {
	zero := suite.config
	zero.Broker = commission_fee.BrokerZero

	withFee, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	withoutFee, err := Backtest(suite.series, zero)
	suite.Require().NoError(err)

	suite.Equal(withFee.Signals(), withoutFee.Signals())
	suite.GreaterOrEqual(withoutFee.Stats.FinalNAV, withFee.Stats.FinalNAV)

	if withFee.Stats.NumberOfTrades > 0 {
		suite.Greater(withoutFee.Stats.FinalNAV, withFee.Stats.FinalNAV)
	}
}

func (suite *BacktestTestSuite) TestDeterministic() {
	first, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	second, err := Backtest(suite.series.Clone(), suite.config)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *BacktestTestSuite) TestInsufficientData() {
	short := suite.series[:suite.config.Windows.Longest()]

	_, err := Backtest(short, suite.config)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInsufficientData, errors.GetCode(err))

	var insufficient *errors.InsufficientDataError
	suite.Require().True(errors.As(err, &insufficient))
	suite.Equal(suite.config.Windows.Longest()+1, insufficient.Required)
	suite.Equal(suite.config.Windows.Longest(), insufficient.Actual)
}

func (suite *BacktestTestSuite) TestMinimumHistory() {
	minimum := suite.series[:suite.config.Windows.Longest()+1]

	result, err := Backtest(minimum, suite.config)
	suite.Require().NoError(err)
	suite.Len(result.Rows, 1)
}

func (suite *BacktestTestSuite) TestUnorderedSeries() {
	series := suite.series.Clone()
	series[10], series[11] = series[11], series[10]

	_, err := Backtest(series, suite.config)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *BacktestTestSuite) TestStatsMatchRows() {
	result, err := Backtest(suite.series, suite.config)
	suite.Require().NoError(err)

	last := result.Rows[len(result.Rows)-1]
	suite.Equal(len(result.Rows), result.Stats.TradingDays)
	suite.InDelta(last.StrategyNAV, result.Stats.FinalNAV, 0.005)
	suite.Equal(result.Rows[0].Date, result.Stats.StartDate)
	suite.Equal(last.Date, result.Stats.EndDate)
	suite.Equal(suite.config.InitialCapital, result.Stats.InitialCapital)
}

var fixtureStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func (suite *BacktestTestSuite) TestConstantPrices() {
	series := mocks.FlatSeries(fixtureStart, 220)
	for i := range series {
		// Gold drifts down so it stays below its own average.
		gld := 100 - 0.01*float64(i)
		series[i].GLD.Open, series[i].GLD.Close = gld, gld
	}

	result, err := Backtest(series, suite.config)
	suite.Require().NoError(err)
	suite.Require().Len(result.Rows, 220-suite.config.Windows.QQQYear)

	for i, row := range result.Rows {
		suite.Equal(types.SignalUndefined, row.RawSignal, "row %d", i)
		suite.Equal(types.SignalSafe, row.Signal, "row %d", i)
		suite.False(row.TradeDay, "row %d", i)
		suite.Equal(types.SafeAssetBond, row.SafeAsset, "row %d", i)
		suite.InDelta(suite.config.InitialCapital, row.StrategyNAV, 1e-9, "row %d", i)
	}

	suite.Equal(0, result.Stats.NumberOfTrades)
	suite.Equal(0, result.Stats.LeverageDays)
}

func (suite *BacktestTestSuite) TestVolatilityJumpResolvesSafe() {
	series := mocks.FlatSeries(fixtureStart, 220)
	jump := 180

	// Close at 70 on the decision row and open at 70 the next morning.
	series[jump].VIX.Close = 70
	series[jump+1].VIX.Open = 70
	series[jump+1].VIX.Close = 70

	set := indicator.Compute(series, suite.config.Windows)
	conditions := condition.Evaluate(condition.NewShiftResolver(series), set)

	decision := conditions[jump]
	suite.Equal(condition.True, decision.VIXAbove66)
	suite.Equal(condition.True, decision.LevCond)
	suite.Equal(condition.True, decision.CondDown)
	suite.Equal(condition.False, decision.SafeCond)

	result, err := Backtest(series, suite.config)
	suite.Require().NoError(err)

	row := result.Rows[jump-suite.config.Windows.QQQYear]
	suite.Equal(series[jump].Date, row.Date)
	suite.Equal(types.SignalSafe, row.RawSignal)
	suite.Equal(types.SignalSafe, row.Signal)
}

func (suite *BacktestTestSuite) TestMissingVolatilityBarDoesNotBlockLeverage() {
	series := mocks.FlatSeries(fixtureStart, 220)
	for i := range series {
		price := 100 * math.Pow(1.003, float64(i))
		series[i].QQQ.Open, series[i].QQQ.Close = price, price
	}

	missing := 200
	series[missing].VIX = types.MissingBar()

	set := indicator.Compute(series, suite.config.Windows)
	conditions := condition.Evaluate(condition.NewShiftResolver(series), set)
	suite.Equal(condition.Unknown, conditions[missing-1].CondDown)
	suite.Equal(condition.True, conditions[missing-1].LevCond)

	result, err := Backtest(series, suite.config)
	suite.Require().NoError(err)

	warmUp := suite.config.Windows.QQQYear
	for _, row := range []int{missing - 1, missing} {
		suite.Equal(types.SignalLeverage, result.Rows[row-warmUp].RawSignal, "row %d", row)
		suite.Equal(types.SignalLeverage, result.Rows[row-warmUp].Signal, "row %d", row)
	}
}
