package engine

import (
	"context"

	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when processing of a data file begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, dataFileIndex int, dataFilePath string, totalDataPoints int) error

// OnRunEndCallback is called when processing of a data file ends.
type OnRunEndCallback func(dataFileIndex int, dataFilePath string, resultFolderPath string)

// OnProcessDataCallback is called for each result row written.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

type Engine interface {
	// Initialize the engine with the given yaml configuration.
	Initialize(config string) error
	// SetConfig replaces the strategy configuration with an already validated value.
	SetConfig(config strategy.Config) error
	// SetDataPath sets the path to the bar data. Accepts glob patterns; every
	// matching file is backtested on its own.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Each data file gets its own sub folder named after the file.
	SetResultsFolder(folder string) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// Run runs the backtest over every data file and returns one result per file.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.BacktestResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
