package condition

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

type ResolverTestSuite struct {
	suite.Suite
	series types.BarSeries
	column []float64
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func (suite *ResolverTestSuite) SetupTest() {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	suite.series = make(types.BarSeries, 3)

	for i := range suite.series {
		bar := types.NewMissingDailyBar(start.AddDate(0, 0, i))
		bar.QQQ.Open = float64(100 + i)
		bar.QQQ.Close = float64(200 + i)
		bar.VIX.Open = float64(10 + i)
		bar.VIX.Close = float64(20 + i)
		suite.series[i] = bar
	}

	suite.column = []float64{1, 2, 3}
}

func (suite *ResolverTestSuite) TestShiftResolver() {
	r := NewShiftResolver(suite.series)

	suite.Equal([]int{0, 1, 2}, r.Rows())

	// Open side comes from the next row
	suite.Equal(101.0, r.Open(0, types.InstrumentQQQ))
	suite.Equal(12.0, r.Open(1, types.InstrumentVIX))
	suite.True(math.IsNaN(r.Open(2, types.InstrumentQQQ)))
	suite.Equal(2.0, r.OpenFeature(0, suite.column))
	suite.True(math.IsNaN(r.OpenFeature(2, suite.column)))

	// Close side comes from the same row
	suite.Equal(200.0, r.Close(0, types.InstrumentQQQ))
	suite.Equal(22.0, r.Close(2, types.InstrumentVIX))
	suite.Equal(1.0, r.Indicator(0, suite.column))
	suite.Equal(3.0, r.Indicator(2, suite.column))
}

func (suite *ResolverTestSuite) TestRelativeRowResolver() {
	r := NewRelativeRowResolver(suite.series)

	suite.Equal([]int{2}, r.Rows())
	suite.Equal(2, r.Last())
	suite.Equal(1, r.SecondToLast())
	suite.Equal(0, r.ThirdToLast())

	// Today's open, yesterday's close, whatever row is asked for
	for _, row := range []int{0, 2} {
		suite.Equal(102.0, r.Open(row, types.InstrumentQQQ))
		suite.Equal(12.0, r.Open(row, types.InstrumentVIX))
		suite.Equal(201.0, r.Close(row, types.InstrumentQQQ))
		suite.Equal(21.0, r.Close(row, types.InstrumentVIX))
		suite.Equal(2.0, r.Indicator(row, suite.column))
		suite.Equal(3.0, r.OpenFeature(row, suite.column))
	}
}

func (suite *ResolverTestSuite) TestRelativeRowResolverShortSeries() {
	empty := NewRelativeRowResolver(types.BarSeries{})
	suite.Empty(empty.Rows())
	suite.True(math.IsNaN(empty.Open(0, types.InstrumentQQQ)))
	suite.True(math.IsNaN(empty.Close(0, types.InstrumentQQQ)))

	single := NewRelativeRowResolver(suite.series[:1])
	suite.Equal([]int{0}, single.Rows())
	suite.Equal(100.0, single.Open(0, types.InstrumentQQQ))
	suite.True(math.IsNaN(single.Close(0, types.InstrumentQQQ)))
	suite.True(math.IsNaN(single.Indicator(0, suite.column)))
}

func (suite *ResolverTestSuite) TestFramingsAgreeOnSharedDecision() {
	// The backtest framing at the second-to-last row reads the same values the
	// live framing reads at the last row.
	shift := NewShiftResolver(suite.series)
	live := NewRelativeRowResolver(suite.series)
	row := live.SecondToLast()

	for _, inst := range []types.Instrument{types.InstrumentQQQ, types.InstrumentVIX} {
		suite.Equal(shift.Open(row, inst), live.Open(live.Last(), inst))
		suite.Equal(shift.Close(row, inst), live.Close(live.Last(), inst))
	}

	suite.Equal(shift.Indicator(row, suite.column), live.Indicator(live.Last(), suite.column))
	suite.Equal(shift.OpenFeature(row, suite.column), live.OpenFeature(live.Last(), suite.column))
}
