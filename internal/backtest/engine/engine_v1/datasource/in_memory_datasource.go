package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
)

// InMemoryDataSource serves a bar series held in memory. It either wraps an
// underlying DataSource whose whole table is preloaded on Initialize, or is
// built directly from a series.
type InMemoryDataSource struct {
	underlying DataSource
	series     types.BarSeries
	mu         sync.RWMutex
}

// NewInMemoryDataSource creates a new InMemoryDataSource wrapping the given DataSource.
func NewInMemoryDataSource(underlying DataSource) *InMemoryDataSource {
	return &InMemoryDataSource{
		underlying: underlying,
		series:     nil,
		mu:         sync.RWMutex{},
	}
}

// NewInMemoryDataSourceFromSeries creates a data source over a fixed series.
func NewInMemoryDataSourceFromSeries(series types.BarSeries) *InMemoryDataSource {
	return &InMemoryDataSource{
		underlying: nil,
		series:     series.Clone(),
		mu:         sync.RWMutex{},
	}
}

// Initialize implements DataSource. It initializes the underlying source and
// preloads its whole table.
func (ds *InMemoryDataSource) Initialize(path string) error {
	if ds.underlying == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "in-memory data source has no underlying source to load from")
	}

	if err := ds.underlying.Initialize(path); err != nil {
		return err
	}

	return ds.Preload(context.Background())
}

// Preload loads the underlying table into memory.
func (ds *InMemoryDataSource) Preload(ctx context.Context) error {
	if ds.underlying == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "in-memory data source has no underlying source to load from")
	}

	series, err := ds.underlying.Fetch(ctx, optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataNotFound, "failed to preload data", err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.series = series

	return nil
}

// ReadAll implements DataSource.
func (ds *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		for _, record := range ds.window(start, end).MarketData() {
			if !yield(record, nil) {
				return
			}
		}
	}
}

// Fetch implements DataSource.
func (ds *InMemoryDataSource) Fetch(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) (types.BarSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ds.window(start, end), nil
}

// ReadLastData implements DataSource.
func (ds *InMemoryDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !types.IsInstrument(symbol) {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	for i := len(ds.series) - 1; i >= 0; i-- {
		bar := ds.series[i].Instrument(types.Instrument(symbol))
		if bar.IsMissing() {
			continue
		}

		return types.MarketData{
			Symbol: symbol,
			Time:   ds.series[i].Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}, nil
	}

	return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return ds.window(start, end).Len(), nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	ds.mu.Lock()
	ds.series = nil
	ds.mu.Unlock()

	if ds.underlying != nil {
		return ds.underlying.Close()
	}

	return nil
}

func (ds *InMemoryDataSource) window(start optional.Option[time.Time], end optional.Option[time.Time]) types.BarSeries {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make(types.BarSeries, 0, len(ds.series))
	for _, bar := range ds.series {
		if inWindow(bar.Date, start, end) {
			out = append(out, bar)
		}
	}

	return out
}

var (
	_ DataSource = (*InMemoryDataSource)(nil)
	_ DataSource = (*DuckDBDataSource)(nil)
)
