package writer

import (
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// MarketDataWriter defines the interface for writing market data to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single market data point.
	Write(data types.MarketData) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// WriteSeries writes every defined instrument bar of series.
func WriteSeries(w MarketDataWriter, series types.BarSeries) error {
	for _, record := range series.MarketData() {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
