package testhelper

import (
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine"
	v1 "github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/mocks"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite is a base test suite for E2E tests
type E2ETestSuite struct {
	suite.Suite
	Backtest   engine.Engine
	DataSource datasource.DataSource
	TempDir    string
}

// SetupEngine initializes the backtest engine over a DuckDB data source.
func (s *E2ETestSuite) SetupEngine(config strategy.Config) {
	s.TempDir = s.T().TempDir()

	backtest := v1.NewBacktestEngineV1()
	s.Require().NoError(backtest.SetConfig(config))

	dataSource, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
	s.Require().NoError(err)
	s.Require().NoError(backtest.SetDataSource(dataSource))
	s.Require().NoError(backtest.SetResultsFolder(filepath.Join(s.TempDir, "results")))

	s.Backtest = backtest
	s.DataSource = dataSource
}

// TearDownEngine releases the data source.
func (s *E2ETestSuite) TearDownEngine() {
	if s.DataSource != nil {
		s.Require().NoError(s.DataSource.Close())
	}
}

// WriteParquet writes series to a parquet bar file under the suite's temp dir
// and returns its path.
func (s *E2ETestSuite) WriteParquet(name string, series types.BarSeries) string {
	w := writer.NewDuckDBWriter(filepath.Join(s.TempDir, "data", name))
	s.Require().NoError(w.Initialize())
	s.Require().NoError(writer.WriteSeries(w, series))

	path, err := w.Finalize()
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	return path
}

// GenerateSeries generates count business days with frequent volatility
// spikes so every branch of the rule set is reached.
func GenerateSeries(seed int64, count int) types.BarSeries {
	config := mocks.DefaultConfig()
	config.Count = count
	config.VIXSpikeRate = 0.05

	return mocks.NewBarGenerator(seed).Generate(config)
}

// OpenEndedConfig returns the production parameters without a date window.
func OpenEndedConfig() strategy.Config {
	config := strategy.DefaultConfig()
	config.StartDate = optional.None[time.Time]()
	config.EndDate = optional.None[time.Time]()

	return config
}

// RowsByDate indexes backtest rows by their date.
func RowsByDate(rows []types.BacktestRow) map[time.Time]types.BacktestRow {
	byDate := make(map[time.Time]types.BacktestRow, len(rows))
	for _, row := range rows {
		byDate[row.Date.UTC()] = row
	}

	return byDate
}
