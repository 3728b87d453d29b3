package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/qqq3x-signal/internal/live"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/report"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/version"
	"github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type outputFormat = string

const (
	outputText outputFormat = "text"
	outputJSON outputFormat = "json"
	outputYAML outputFormat = "yaml"
)

// sources holds the providers the evaluator reads from and a cleanup hook.
type sources struct {
	history provider.HistoryProvider
	quotes  provider.QuoteProvider
	close   func() error
}

// signalAction evaluates the signal to act on at the open of the given date.
func signalAction(ctx context.Context, cmd *cli.Command) error {
	level := zapcore.WarnLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	runLog, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = runLog.Sync() }()

	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	src, err := openSources(cmd.String("history"), cmd.Float("qqq-open"), cmd.Float("vix-open"), os.Getenv("POLYGON_API_KEY"), runLog)
	if err != nil {
		return err
	}
	defer func() { _ = src.close() }()

	evaluator := live.NewEvaluator(src.history, src.quotes, config, runLog)

	today, err := evaluator.Today(ctx, cmd.Timestamp("date"))
	if err != nil {
		return err
	}

	return writeOutput(os.Stdout, today, cmd.String("output"), cmd.Bool("verbose"))
}

func loadConfig(path string) (strategy.Config, error) {
	if path == "" {
		return strategy.DefaultConfig(), nil
	}

	return strategy.LoadConfig(path)
}

// openSources picks the history and quote providers. A history file is read
// through DuckDB; otherwise Polygon serves the history. Opens given on the
// command line take precedence over the Polygon quote.
func openSources(historyPath string, qqqOpen float64, vixOpen float64, apiKey string, runLog *logger.Logger) (sources, error) {
	src := sources{close: func() error { return nil }}

	manualQuote := qqqOpen > 0 || vixOpen > 0
	if manualQuote {
		src.quotes = provider.NewStaticQuoteProvider(qqqOpen, vixOpen)
	}

	if historyPath != "" {
		ds, err := datasource.NewDataSource(":memory:", runLog)
		if err != nil {
			return sources{}, err
		}

		if err := ds.Initialize(historyPath); err != nil {
			_ = ds.Close()

			return sources{}, err
		}

		src.history = ds
		src.close = ds.Close
	}

	if src.history != nil && src.quotes != nil {
		return src, nil
	}

	if apiKey == "" {
		_ = src.close()

		return sources{}, fmt.Errorf("POLYGON_API_KEY is required unless both --history and the opening quote flags are given")
	}

	polygon, err := provider.NewPolygonClient(apiKey)
	if err != nil {
		_ = src.close()

		return sources{}, err
	}

	if src.history == nil {
		src.history = polygon
	}

	if src.quotes == nil {
		src.quotes = polygon
	}

	return src, nil
}

func writeOutput(w io.Writer, today live.TodaySignal, format outputFormat, verbose bool) error {
	switch format {
	case outputText:
		_, err := fmt.Fprintln(w, report.Today(today, verbose))

		return err
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(today)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()

		return encoder.Encode(today)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "signal",
		Version: version.GetVersion(),
		Usage:   "Compute today's allocation signal from the opening quote",
		Flags: []cli.Flag{
			&cli.TimestampFlag{
				Name:  "date",
				Usage: "Trading day in `YYYY-MM-DD` format. Defaults to today.",
				Value: time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly},
				},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a strategy config yaml. Defaults to the production parameters.",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "Parquet bar file to read history from instead of Polygon",
			},
			&cli.FloatFlag{
				Name:  "qqq-open",
				Usage: "Today's QQQ open. Skips the Polygon quote when given with --vix-open.",
			},
			&cli.FloatFlag{
				Name:  "vix-open",
				Usage: "Today's VIX open",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   fmt.Sprintf("Output format (%s, %s, %s)", outputText, outputJSON, outputYAML),
				Value:   outputText,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print the predicate trace and debug logs",
			},
		},
		Action: signalAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, report.Error(err))
		os.Exit(1)
	}
}
