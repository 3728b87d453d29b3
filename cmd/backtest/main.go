package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/report"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// backtestAction runs the strategy over every data file matching the data flag.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	runLog, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = runLog.Sync() }()

	backtester, err := newEngine(cmd.String("config"), cmd.String("data"), cmd.String("results"))
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource(":memory:", runLog)
	if err != nil {
		return err
	}

	if cmd.Bool("preload") {
		ds = datasource.NewInMemoryDataSource(ds)
	}
	defer ds.Close()

	if err := backtester.SetDataSource(ds); err != nil {
		return err
	}

	results, err := backtester.Run(ctx, newCallbacks(runLog, cmd.Bool("quiet")))
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Println(report.Stats(result.Stats))
		fmt.Println()
	}

	return nil
}

// newEngine configures a backtest engine from the flag values. An empty
// config path runs with the default parameters.
func newEngine(configPath string, dataPath string, resultsFolder string) (engine.Engine, error) {
	backtester := enginev1.NewBacktestEngineV1()

	if configPath == "" {
		if err := backtester.SetConfig(strategy.DefaultConfig()); err != nil {
			return nil, err
		}
	} else {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := backtester.Initialize(string(content)); err != nil {
			return nil, err
		}
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return nil, err
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return nil, err
	}

	return backtester, nil
}

// newCallbacks logs the run lifecycle and shows a progress bar while results
// are written.
func newCallbacks(runLog *logger.Logger, quiet bool) engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(totalDataFiles int) error {
		runLog.Info("Starting backtest", zap.Int("data_files", totalDataFiles))

		return nil
	})

	onRunStart := engine.OnRunStartCallback(func(runID string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
		runLog.Info("Processing data file",
			zap.String("run_id", runID),
			zap.Int("index", dataFileIndex),
			zap.String("path", dataFilePath),
			zap.Int("rows", totalDataPoints),
		)

		bar = nil

		return nil
	})

	onProcessData := engine.OnProcessDataCallback(func(current int, total int) error {
		if quiet {
			return nil
		}

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Writing results"),
				progressbar.OptionShowCount(),
			)
		}

		return bar.Set(current)
	})

	onRunEnd := engine.OnRunEndCallback(func(dataFileIndex int, dataFilePath string, resultFolderPath string) {
		if bar != nil {
			_ = bar.Finish()
		}

		runLog.Info("Data file done",
			zap.Int("index", dataFileIndex),
			zap.String("results", resultFolderPath),
		)
	})

	onEnd := engine.OnBacktestEndCallback(func(err error) {
		if err != nil {
			runLog.Error("Backtest failed", zap.Error(err))

			return
		}

		runLog.Info("Backtest completed")
	})

	return engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnRunStart:      &onRunStart,
		OnRunEnd:        &onRunEnd,
		OnProcessData:   &onProcessData,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Version: version.GetVersion(),
		Usage:   "Backtest the leveraged equity strategy over downloaded daily bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a strategy config yaml. Defaults to the production parameters.",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Parquet bar file or glob pattern, e.g. `data/*.parquet`",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Folder results are written to",
				Value:   "results",
			},
			&cli.BoolFlag{
				Name:  "preload",
				Usage: "Load each data file into memory before running",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: backtestAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, report.Error(err))
		os.Exit(1)
	}
}
