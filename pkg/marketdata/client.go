package marketdata

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/writer"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	WriterType    WriterType `validate:"required,oneof=duckdb"`
	DataPath      string     `validate:"required"`
	PolygonApiKey string     `validate:"required"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	StartDate   time.Time          `validate:"required"`
	EndDate     time.Time          `validate:"required,gtfield=StartDate"`
	Instruments []types.Instrument `validate:"required,min=1,dive,oneof=QQQ ^VIX GLD SHY"`
}

// DefaultDownloadParams downloads every instrument over the window.
func DefaultDownloadParams(startDate time.Time, endDate time.Time) DownloadParams {
	return DownloadParams{
		StartDate:   startDate,
		EndDate:     endDate,
		Instruments: types.Instruments,
	}
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
}

// NewClient creates a new market data client backed by Polygon.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	marketProvider, err := provider.NewPolygonClient(config.PolygonApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Polygon client: %w", err)
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// NewClientWithProvider creates a client over an existing provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.StructExcept(config, "PolygonApiKey"); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() provider.Provider {
	return c.provider
}

// Download fetches the daily bars of the requested instruments into one
// parquet file and returns its path.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid download parameters: %w", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	c.provider.ConfigWriter(marketWriter)

	path, err := c.provider.Download(ctx, params.Instruments, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return path, nil
}

// setupWriter creates the writer selected by the configuration.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		// bars_START_END.parquet
		outputFileName := fmt.Sprintf("bars_%s_%s.parquet",
			params.StartDate.Format(time.DateOnly),
			params.EndDate.Format(time.DateOnly))

		return writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, outputFileName)), nil
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", c.config.WriterType)
	}
}
