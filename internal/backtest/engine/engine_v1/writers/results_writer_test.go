package writers

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

type ResultsWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestResultsWriterTestSuite(t *testing.T) {
	suite.Run(t, new(ResultsWriterTestSuite))
}

func (s *ResultsWriterTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
}

func testRows() []types.BacktestRow {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	return []types.BacktestRow{
		{Date: start, RawSignal: types.SignalLeverage, Signal: types.SignalLeverage, SafeAsset: types.SafeAssetGold, StrategyReturn: 0.01, StrategyNAV: 10100},
		{Date: start.AddDate(0, 0, 1), RawSignal: types.SignalUndefined, Signal: types.SignalLeverage, SafeAsset: types.SafeAssetGold, StrategyReturn: -0.02, StrategyNAV: 9898},
		{Date: start.AddDate(0, 0, 2), RawSignal: types.SignalSafe, Signal: types.SignalSafe, TradeDay: true, SafeAsset: types.SafeAssetBond, StrategyReturn: 0, StrategyNAV: 9898},
	}
}

func (s *ResultsWriterTestSuite) TestWriteNotInitialized() {
	w := NewResultsWriter(filepath.Join(s.tempDir, "results.parquet"))

	err := w.Write(testRows()[0])
	s.Error(err)
	s.Contains(err.Error(), "writer not initialized")

	s.Error(w.Flush())

	_, err = w.GetRowCount()
	s.Error(err)
}

func (s *ResultsWriterTestSuite) TestRoundTrip() {
	outputPath := filepath.Join(s.tempDir, "nested", "results.parquet")
	w := NewResultsWriter(outputPath)
	s.Require().NoError(w.Initialize())
	defer w.Close()

	rows := testRows()
	// Out of order on purpose; the export sorts by date
	for _, i := range []int{2, 0, 1} {
		s.Require().NoError(w.Write(rows[i]))
	}

	count, err := w.GetRowCount()
	s.NoError(err)
	s.Equal(3, count)

	s.Require().NoError(w.Flush())
	s.Equal(outputPath, w.GetOutputPath())

	read, err := ReadResults(outputPath)
	s.Require().NoError(err)
	s.Equal(rows, read)
}

func (s *ResultsWriterTestSuite) TestCloseTwice() {
	w := NewResultsWriter(filepath.Join(s.tempDir, "results.parquet"))
	s.Require().NoError(w.Initialize())

	s.NoError(w.Close())
	s.NoError(w.Close())
}

func (s *ResultsWriterTestSuite) TestReadResultsMissingFile() {
	_, err := ReadResults(filepath.Join(s.tempDir, "missing.parquet"))
	s.Error(err)
}
