package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/internal/version"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// downloadAction sets up the market data client and downloads the daily bars
// of the requested instruments into one parquet file.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")

	instruments, err := parseInstruments(cmd.StringSlice("instrument"))
	if err != nil {
		return err
	}

	runLog, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = runLog.Sync() }()

	clientConfig := marketdata.ClientConfig{
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}

	client, err := marketdata.NewClient(clientConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	params := marketdata.DefaultDownloadParams(startDate, endDate)
	params.Instruments = instruments

	runLog.Info("Starting download",
		zap.Time("start", startDate),
		zap.Time("end", endDate),
		zap.Strings("instruments", instrumentNames(instruments)),
		zap.String("writer", string(clientConfig.WriterType)),
	)

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	runLog.Info("Download completed", zap.String("path", path))

	return nil
}

// parseInstruments maps flag values onto known instruments. An empty list
// selects all of them.
func parseInstruments(values []string) ([]types.Instrument, error) {
	if len(values) == 0 {
		return types.Instruments, nil
	}

	instruments := make([]types.Instrument, 0, len(values))

	for _, value := range values {
		instrument, ok := lookupInstrument(value)
		if !ok {
			return nil, fmt.Errorf("unknown instrument %q, expected one of %s",
				value, strings.Join(instrumentNames(types.Instruments), ", "))
		}

		instruments = append(instruments, instrument)
	}

	return instruments, nil
}

func lookupInstrument(value string) (types.Instrument, bool) {
	for _, instrument := range types.Instruments {
		if strings.EqualFold(string(instrument), value) || strings.EqualFold(strings.TrimPrefix(string(instrument), "^"), value) {
			return instrument, true
		}
	}

	return "", false
}

func instrumentNames(instruments []types.Instrument) []string {
	names := make([]string, len(instruments))
	for i, instrument := range instruments {
		names[i] = string(instrument)
	}

	return names
}

func main() {
	cmd := &cli.Command{
		Name:    "download",
		Version: version.GetVersion(),
		Usage:   "Download the daily bars the strategy trades on",
		Flags: []cli.Flag{
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly},
				},
			},
			&cli.StringSliceFlag{
				Name:    "instrument",
				Aliases: []string{"i"},
				Usage:   "Instrument to download, repeatable (QQQ, VIX, GLD, SHY). Defaults to all.",
			},
			&cli.StringFlag{
				Name:    "writer",
				Aliases: []string{"w"},
				Usage:   fmt.Sprintf("Data writer format (e.g., %s)", marketdata.WriterDuckDB),
				Value:   string(marketdata.WriterDuckDB),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
