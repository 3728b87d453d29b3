package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BacktestStats summarises one backtest run.
type BacktestStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// StartDate is the first date after the warm-up rows were dropped.
	StartDate time.Time `yaml:"start_date" json:"start_date"`
	// EndDate is the last date of the run.
	EndDate time.Time `yaml:"end_date" json:"end_date"`
	// TradingDays is the number of rows in the result.
	TradingDays int `yaml:"trading_days" json:"trading_days"`
	// InitialCapital is the capital the NAV curve is scaled by.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	// FinalNAV is the last NAV value, rounded to cents.
	FinalNAV float64 `yaml:"final_nav" json:"final_nav"`
	// TotalReturn is FinalNAV over the first NAV value, minus one.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// CAGR is the compound annual growth rate over the result window.
	CAGR float64 `yaml:"cagr" json:"cagr"`
	// MaxDrawdown is the largest peak-to-trough fall of the NAV curve, as a positive fraction.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// NumberOfTrades counts trade days in the result window.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// LeverageDays counts days whose signal was leverage.
	LeverageDays int `yaml:"leverage_days" json:"leverage_days"`
	// BuyAndHoldReturn is the unleveraged equity return over the same window.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return" json:"buy_and_hold_return"`
	// ResultFilePath is the path to the result parquet file, if written.
	ResultFilePath string `yaml:"result_file_path,omitempty" json:"result_file_path,omitempty"`
	// EngineVersion is the engine release that produced the run.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty"`
	// DataPath is the path to the bar data used for this backtest.
	DataPath string `yaml:"data_path,omitempty" json:"data_path,omitempty"`
}

// WriteBacktestStats writes stats to path as yaml.
func WriteBacktestStats(path string, stats BacktestStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest stats to file: %w", err)
	}

	return nil
}

// ReadBacktestStats reads stats previously written by WriteBacktestStats.
func ReadBacktestStats(path string) (BacktestStats, error) {
	var stats BacktestStats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("failed to read backtest stats: %w", err)
	}

	if err := yaml.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("failed to unmarshal backtest stats: %w", err)
	}

	return stats, nil
}
