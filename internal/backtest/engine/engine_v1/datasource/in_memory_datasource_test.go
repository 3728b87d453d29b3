package datasource

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type InMemoryDataSourceTestSuite struct {
	suite.Suite
	series types.BarSeries
	ds     *InMemoryDataSource
}

func TestInMemoryDataSourceSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDataSourceTestSuite))
}

// businessDaySeries builds count business days starting on 2024-01-01 with
// every instrument defined.
func businessDaySeries(count int) types.BarSeries {
	series := make(types.BarSeries, 0, count)

	for date := day(1); len(series) < count; date = date.AddDate(0, 0, 1) {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		bar := types.NewMissingDailyBar(date)
		price := float64(len(series))

		for _, instrument := range types.Instruments {
			bar.SetInstrument(instrument, types.InstrumentBar{
				Open: 100 + price, High: 101 + price, Low: 99 + price, Close: 100.5 + price, Volume: 1000,
			})
		}

		series = append(series, bar)
	}

	return series
}

func (suite *InMemoryDataSourceTestSuite) SetupTest() {
	suite.series = businessDaySeries(30)
	suite.ds = NewInMemoryDataSourceFromSeries(suite.series)
}

func (suite *InMemoryDataSourceTestSuite) TestFetch() {
	series, err := suite.ds.Fetch(context.Background(), optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(suite.series, series)

	series, err = suite.ds.Fetch(context.Background(), optional.Some(day(8)), optional.Some(day(12)))
	suite.NoError(err)
	suite.Len(series, 5)
	suite.Equal(day(8), series[0].Date)
	suite.Equal(day(12), series[4].Date)
}

func (suite *InMemoryDataSourceTestSuite) TestFetchCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.ds.Fetch(ctx, optional.None[time.Time](), optional.None[time.Time]())
	suite.ErrorIs(err, context.Canceled)
}

func (suite *InMemoryDataSourceTestSuite) TestCount() {
	count, err := suite.ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(30, count)
}

func (suite *InMemoryDataSourceTestSuite) TestReadAll() {
	count := 0
	for record, err := range suite.ds.ReadAll(optional.None[time.Time](), optional.Some(day(2))) {
		suite.NoError(err)
		suite.True(types.IsInstrument(record.Symbol))
		count++
	}

	// Two business days, four instruments each
	suite.Equal(8, count)
}

func (suite *InMemoryDataSourceTestSuite) TestReadLastData() {
	record, err := suite.ds.ReadLastData("GLD")
	suite.NoError(err)
	suite.Equal(suite.series[len(suite.series)-1].GLD.Close, record.Close)

	_, err = suite.ds.ReadLastData("SPY")
	suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
}

func (suite *InMemoryDataSourceTestSuite) TestInitializeWithoutUnderlying() {
	err := suite.ds.Initialize("bars.parquet")
	suite.Equal(errors.ErrCodeDataSourceUnavailable, errors.GetCode(err))
}

func (suite *InMemoryDataSourceTestSuite) TestPreloadFromDuckDB() {
	path := filepath.Join(suite.T().TempDir(), "bars.parquet")
	suite.Require().NoError(writeTestRecordsToParquet(createTestRecords(), path))

	underlying, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)

	ds := NewInMemoryDataSource(underlying)
	defer ds.Close()

	suite.Require().NoError(ds.Initialize(path))

	count, err := ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(5, count)
}
