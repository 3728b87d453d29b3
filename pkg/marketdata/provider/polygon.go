package provider

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
)

var newYork = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load time zone %s: %v", name, err))
	}

	return location
}

// PolygonTickers maps each instrument to its Polygon ticker.
var PolygonTickers = map[types.Instrument]string{
	types.InstrumentQQQ: "QQQ",
	types.InstrumentVIX: "I:VIX",
	types.InstrumentGLD: "GLD",
	types.InstrumentSHY: "SHY",
}

// PolygonAggsIterator is the part of the Polygon aggregates iterator the client reads.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the part of the Polygon REST client the provider calls.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonRestClient struct {
	client *polygon.Client
}

func (c *polygonRestClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	now       func() time.Time
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonRestClient{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client over an existing API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: apiClient,
		writer:    nil,
		now:       time.Now,
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download implements Provider.
func (c *PolygonClient) Download(
	ctx context.Context,
	instruments []types.Instrument,
	startDate time.Time,
	endDate time.Time,
	onProgress OnDownloadProgress,
) (path string, err error) {
	if c.writer == nil {
		return "", fmt.Errorf("no writer configured for PolygonClient. Call ConfigWriter first")
	}

	err = c.writer.Initialize()
	if err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if cerr := c.writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing writer: %w", cerr)
		}
	}()

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	total := days * len(instruments)

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Downloading daily bars"),
		progressbar.OptionShowCount(),
	)

	processed := 0

	for _, instrument := range instruments {
		message := fmt.Sprintf("Downloading %s", instrument)
		bar.Describe(message)

		err := c.eachDailyBar(ctx, instrument, startDate, endDate, func(record types.MarketData) error {
			if err := c.writer.Write(record); err != nil {
				return fmt.Errorf("failed to write data: %w", err)
			}

			processed++
			_ = bar.Add(1)

			if onProgress != nil {
				onProgress(float64(processed), float64(total), message)
			}

			return nil
		})
		if err != nil {
			return "", err
		}
	}

	_ = bar.Finish()

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

// Fetch implements HistoryProvider. The start date is required; a missing end
// date means today.
func (c *PolygonClient) Fetch(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) (types.BarSeries, error) {
	if start.IsNone() {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon fetch needs a start date")
	}

	endDate := end.TakeOrElse(c.now)

	var records []types.MarketData

	for _, instrument := range types.Instruments {
		err := c.eachDailyBar(ctx, instrument, start.Unwrap(), endDate, func(record types.MarketData) error {
			records = append(records, record)

			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s", instrument)
		}
	}

	return types.AlignMarketData(records), nil
}

// OpeningQuote implements QuoteProvider. The open of each index is the open
// of its first minute bar of the regular session, which starts at 09:30 New
// York time. Pre-market bars are skipped.
func (c *PolygonClient) OpeningQuote(ctx context.Context, date time.Time) (Quote, error) {
	qqqOpen, err := c.firstMinuteOpen(ctx, types.InstrumentQQQ, date)
	if err != nil {
		return Quote{}, err
	}

	vixOpen, err := c.firstMinuteOpen(ctx, types.InstrumentVIX, date)
	if err != nil {
		return Quote{}, err
	}

	return Quote{Date: dayOf(date), QQQOpen: qqqOpen, VIXOpen: vixOpen}, nil
}

func (c *PolygonClient) firstMinuteOpen(ctx context.Context, instrument types.Instrument, date time.Time) (float64, error) {
	sessionOpen, sessionClose := regularSession(date)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     PolygonTickers[instrument],
		Multiplier: 1,
		Timespan:   models.Minute,
		From:       models.Millis(sessionOpen),
		To:         models.Millis(sessionClose),
	}.WithOrder(models.Asc).WithLimit(5)

	iter := c.apiClient.ListAggs(ctx, params)
	for iter.Next() {
		agg := iter.Item()

		stamp := time.Time(agg.Timestamp)
		if stamp.Before(sessionOpen) || !stamp.Before(sessionClose) {
			continue
		}

		return agg.Open, nil
	}

	if err := iter.Err(); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQuoteUnavailable, err, "failed to fetch opening quote of %s", instrument)
	}

	return 0, errors.Newf(errors.ErrCodeQuoteUnavailable, "no opening quote of %s on %s", instrument, dayOf(date).Format(time.DateOnly))
}

// regularSession returns the 09:30 to 16:00 New York session of the calendar
// day of date.
func regularSession(date time.Time) (time.Time, time.Time) {
	y, m, d := dayOf(date).Date()

	return time.Date(y, m, d, 9, 30, 0, 0, newYork), time.Date(y, m, d, 16, 0, 0, 0, newYork)
}

// eachDailyBar lists the daily aggregates of one instrument and hands each
// one to fn, stamped with its calendar day.
func (c *PolygonClient) eachDailyBar(
	ctx context.Context,
	instrument types.Instrument,
	startDate time.Time,
	endDate time.Time,
	fn func(types.MarketData) error,
) error {
	ticker, ok := PolygonTickers[instrument]
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown instrument %s", instrument)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		agg := iter.Item()

		err := fn(types.MarketData{
			Id:     "",
			Symbol: string(instrument),
			Time:   dayOf(time.Time(agg.Timestamp)),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
		if err != nil {
			return err
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error iterating polygon aggregates: %w", err)
	}

	return nil
}

// dayOf returns midnight UTC of the calendar day of t. Polygon stamps a daily
// bar at the start of the exchange day, which falls on the same UTC date.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ Provider = (*PolygonClient)(nil)
