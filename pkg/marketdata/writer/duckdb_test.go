package writer

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/qqq3x-signal/internal/condition"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/signal"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

// waveSeries builds count business days of smooth prices. The gold bar of
// every 17th row is missing.
func waveSeries(count int) types.BarSeries {
	series := make(types.BarSeries, 0, count)
	date := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	for len(series) < count {
		if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
			i := float64(len(series))
			bar := types.NewMissingDailyBar(date)
			bar.QQQ = types.InstrumentBar{Open: 300 + 20*math.Sin(i/9), High: 305 + 20*math.Sin(i/9), Low: 295 + 20*math.Sin(i/9), Close: 301 + 20*math.Sin(i/8), Volume: 1e6}
			bar.VIX = types.InstrumentBar{Open: 20 + 8*math.Cos(i/5), High: 22 + 8*math.Cos(i/5), Low: 18 + 8*math.Cos(i/5), Close: 20 + 8*math.Cos(i/4), Volume: 0}
			bar.SHY = types.InstrumentBar{Open: 82, High: 82.2, Low: 81.9, Close: 82 + 0.01*i, Volume: 2e5}

			if len(series)%17 != 0 {
				bar.GLD = types.InstrumentBar{Open: 180, High: 182, Low: 179, Close: 180 + 3*math.Sin(i/11), Volume: 5e5}
			}

			series = append(series, bar)
		}

		date = date.AddDate(0, 0, 1)
	}

	return series
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "test.parquet")
	writer := NewDuckDBWriter(outputPath)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.True(ok)
	suite.Equal(outputPath, duckWriter.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "test.parquet"))

	err := writer.Write(types.MarketData{Symbol: "QQQ", Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1})
	suite.Error(err)
	suite.Contains(err.Error(), "writer not initialized")

	_, err = writer.Finalize()
	suite.Error(err)
}

func (suite *DuckDBWriterTestSuite) TestCloseWithoutFinalize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "test.parquet"))
	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(types.MarketData{Symbol: "QQQ", Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}))

	suite.NoError(writer.Close())
	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestMissingValuesAreNull() {
	outputPath := filepath.Join(suite.tempDir, "nulls.parquet")
	writer := NewDuckDBWriter(outputPath)
	suite.Require().NoError(writer.Initialize())
	defer writer.Close()

	suite.Require().NoError(writer.Write(types.MarketData{
		Id: "fixed", Symbol: "^VIX", Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open: 13, High: 14, Low: 12, Close: 13.5, Volume: math.NaN(),
	}))

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	var (
		id     string
		volume sql.NullFloat64
	)

	err = db.QueryRow("SELECT id, volume FROM read_parquet('"+outputPath+"')").Scan(&id, &volume)
	suite.Require().NoError(err)
	suite.Equal("fixed", id)
	suite.False(volume.Valid)
}

func (suite *DuckDBWriterTestSuite) TestRoundTripReproducesSignals() {
	series := waveSeries(220)
	outputPath := filepath.Join(suite.tempDir, "nested", "bars.parquet")

	writer := NewDuckDBWriter(outputPath)
	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(WriteSeries(writer, series))
	_, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	ds, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	suite.Require().NoError(ds.Initialize(outputPath))

	reloaded, err := ds.Fetch(context.Background(), optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Equal(series.Len(), reloaded.Len())

	for i := range series {
		suite.True(series[i].Date.Equal(reloaded[i].Date), "row %d", i)
	}

	suite.True(math.IsNaN(reloaded[0].GLD.Close))
	suite.True(math.IsNaN(reloaded[17].GLD.Close))

	windows := indicator.DefaultWindows()
	original := indicator.Compute(series, windows)
	restored := indicator.Compute(reloaded, windows)

	suite.Equal(nanToSentinel(original.QQQSMAYear), nanToSentinel(restored.QQQSMAYear))
	suite.Equal(nanToSentinel(original.GLDSMA), nanToSentinel(restored.GLDSMA))
	suite.Equal(nanToSentinel(original.VIXOpenClose), nanToSentinel(restored.VIXOpenClose))

	signals := func(s types.BarSeries, set indicator.Set) []types.Signal {
		return signal.Resolve(signal.Raw(condition.Evaluate(condition.NewShiftResolver(s), set), signal.NewFullCombiner()))
	}

	suite.Equal(signals(series, original), signals(reloaded, restored))
}

// nanToSentinel makes NaN comparable with Equal.
func nanToSentinel(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			v = -1e300
		}

		out[i] = v
	}

	return out
}
