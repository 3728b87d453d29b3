package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// HistoryProvider returns the aligned daily bars of the four instruments
// between two optional dates, inclusive.
type HistoryProvider interface {
	Fetch(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) (types.BarSeries, error)
}

// Quote holds the opening prices of the equity and volatility indices on one day.
type Quote struct {
	Date    time.Time `json:"date" yaml:"date"`
	QQQOpen float64   `json:"qqq_open" yaml:"qqq_open" validate:"gt=0"`
	VIXOpen float64   `json:"vix_open" yaml:"vix_open" validate:"gt=0"`
}

// QuoteProvider supplies the opening quote of a trading day.
type QuoteProvider interface {
	OpeningQuote(ctx context.Context, date time.Time) (Quote, error)
}

type Provider interface {
	HistoryProvider
	QuoteProvider
	// ConfigWriter configures the writer for the provider
	// Writer is used to write the market data to the database.
	// It could be a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the daily bars of the given instruments into the
	// configured writer and returns the written file.
	// The context can be used to cancel the download operation.
	// example:
	// Download(ctx, types.Instruments, time.Date(2003, 9, 18, 0, 0, 0, 0, time.UTC), time.Now(), onProgress)
	Download(ctx context.Context, instruments []types.Instrument, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

// StaticQuoteProvider serves a quote entered by hand.
type StaticQuoteProvider struct {
	quote Quote
}

// NewStaticQuoteProvider creates a provider that always returns the given opens.
func NewStaticQuoteProvider(qqqOpen float64, vixOpen float64) *StaticQuoteProvider {
	return &StaticQuoteProvider{
		quote: Quote{Date: time.Time{}, QQQOpen: qqqOpen, VIXOpen: vixOpen},
	}
}

// OpeningQuote implements QuoteProvider.
func (p *StaticQuoteProvider) OpeningQuote(_ context.Context, date time.Time) (Quote, error) {
	if p.quote.QQQOpen <= 0 || p.quote.VIXOpen <= 0 {
		return Quote{}, errors.Newf(errors.ErrCodeQuoteUnavailable,
			"opening quote must be positive, got qqq %.2f vix %.2f", p.quote.QQQOpen, p.quote.VIXOpen)
	}

	quote := p.quote
	quote.Date = date

	return quote, nil
}

var _ QuoteProvider = (*StaticQuoteProvider)(nil)
