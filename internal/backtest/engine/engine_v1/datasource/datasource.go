package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// DataSource serves the stored daily bars of the four instruments.
type DataSource interface {
	// Initialize initializes the data source with the given data path in parquet format
	Initialize(path string) error
	// ReadAll reads the stored records in time order and yields them to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// Fetch returns the records of the window aligned into a bar series
	Fetch(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) (types.BarSeries, error)
	// ReadLastData reads the last record of a specific symbol
	ReadLastData(symbol string) (types.MarketData, error)
	// Count returns the number of trading days in the window
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// endOfDay returns the first instant after the day of t, so that an end
// date includes every record stamped on that day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

// inWindow reports whether t falls in the optional [start, end] day window.
func inWindow(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && !t.Before(endOfDay(end.Unwrap())) {
		return false
	}

	return true
}
