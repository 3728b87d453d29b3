package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/writers"
	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
	"github.com/rxtech-lab/qqq3x-signal/internal/version"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"go.uber.org/zap"
)

const (
	resultsFileName = "results.parquet"
	statsFileName   = "stats.yaml"
)

type BacktestEngineV1 struct {
	config        strategy.Config
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        strategy.DefaultConfig(),
		dataPaths:     nil,
		resultsFolder: "",
		log:           logger.NewNopLogger(),
		datasource:    nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := strategy.ParseConfig([]byte(config))
	if err != nil {
		return err
	}

	b.config = parsed

	// initialize the logger
	var loggerError error

	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	return nil
}

// SetConfig implements engine.Engine.
func (b *BacktestEngineV1) SetConfig(config strategy.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	b.config = config

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %s", path)
	}

	// Convert all paths to absolute paths
	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return err
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (results []types.BacktestResult, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.dataPaths)); err != nil {
			return nil, err
		}
	}

	for dataFileIndex, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := b.runDataFile(ctx, callbacks, dataFileIndex, dataPath)
		if err != nil {
			return results, err
		}

		results = append(results, result)
	}

	return results, nil
}

func (b *BacktestEngineV1) runDataFile(
	ctx context.Context,
	callbacks engine.LifecycleCallbacks,
	dataFileIndex int,
	dataPath string,
) (types.BacktestResult, error) {
	runID := uuid.New().String()
	resultFolderPath := getResultFolder(b.resultsFolder, dataPath, b.config)

	b.log.Debug("Running backtest",
		zap.String("run_id", runID),
		zap.String("data", dataPath),
		zap.String("result", resultFolderPath),
	)

	// Initialize the data source with the given data path
	if err := b.datasource.Initialize(dataPath); err != nil {
		return types.BacktestResult{}, fmt.Errorf("failed to initialize data source: %w", err)
	}

	count, err := b.datasource.Count(b.config.StartDate, b.config.EndDate)
	if err != nil {
		return types.BacktestResult{}, fmt.Errorf("failed to get data count: %w", err)
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, dataFileIndex, dataPath, count); err != nil {
			return types.BacktestResult{}, err
		}
	}

	series, err := b.datasource.Fetch(ctx, b.config.StartDate, b.config.EndDate)
	if err != nil {
		return types.BacktestResult{}, fmt.Errorf("failed to read data: %w", err)
	}

	result, err := Backtest(series, b.config)
	if err != nil {
		b.log.Error("Backtest failed",
			zap.String("data", dataPath),
			zap.Int("rows", series.Len()),
			zap.Error(err),
		)

		return types.BacktestResult{}, err
	}

	result.Stats.ID = runID
	result.Stats.Timestamp = time.Now()
	result.Stats.DataPath = dataPath
	result.Stats.EngineVersion = version.GetVersion()

	if err := b.writeResults(callbacks, &result, resultFolderPath); err != nil {
		return types.BacktestResult{}, fmt.Errorf("failed to write results: %w", err)
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Time("start", result.Stats.StartDate),
		zap.Time("end", result.Stats.EndDate),
		zap.Float64("final_nav", result.Stats.FinalNAV),
		zap.Float64("cagr", result.Stats.CAGR),
		zap.Int("trades", result.Stats.NumberOfTrades),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(dataFileIndex, dataPath, resultFolderPath)
	}

	return result, nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) writeResults(callbacks engine.LifecycleCallbacks, result *types.BacktestResult, resultFolderPath string) error {
	// A previous run of the same file is replaced
	if err := os.RemoveAll(resultFolderPath); err != nil {
		return fmt.Errorf("failed to clean result folder: %w", err)
	}

	writer := writers.NewResultsWriter(filepath.Join(resultFolderPath, resultsFileName))
	if err := writer.Initialize(); err != nil {
		return err
	}
	defer writer.Close()

	total := len(result.Rows)

	for i, row := range result.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, total); err != nil {
				return err
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	result.Stats.ResultFilePath = writer.GetOutputPath()

	// Write stats to file
	if err := types.WriteBacktestStats(filepath.Join(resultFolderPath, statsFileName), result.Stats); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestConfigError, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestConfigError, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
