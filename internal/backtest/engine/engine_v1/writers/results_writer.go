package writers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/qqq3x-signal/internal/types"
)

// ResultsWriter collects backtest rows in an in-memory DuckDB table and
// exports them to a parquet file.
type ResultsWriter struct {
	db         *sql.DB
	outputPath string
	mu         sync.Mutex
}

// NewResultsWriter creates a new ResultsWriter.
// outputPath is the full path to the parquet file.
func NewResultsWriter(outputPath string) *ResultsWriter {
	return &ResultsWriter{
		db:         nil,
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize sets up the results writer with DuckDB.
func (w *ResultsWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			date DATE,
			raw_signal INTEGER,
			signal INTEGER,
			trade_day BOOLEAN,
			safe_asset TEXT,
			strategy_return DOUBLE,
			strategy_nav DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to create results table: %w", err)
	}

	return nil
}

// Write stores one backtest row.
func (w *ResultsWriter) Write(row types.BacktestRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return fmt.Errorf("writer not initialized")
	}

	_, err := w.db.Exec(`
		INSERT INTO results (id, date, raw_signal, signal, trade_day, safe_asset, strategy_return, strategy_nav)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), row.Date, int(row.RawSignal), int(row.Signal), row.TradeDay,
		string(row.SafeAsset), row.StrategyReturn, row.StrategyNAV)
	if err != nil {
		return fmt.Errorf("failed to insert result row: %w", err)
	}

	return nil
}

// Flush exports every stored row to parquet, ordered by date.
func (w *ResultsWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return fmt.Errorf("writer not initialized")
	}

	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM results ORDER BY date)
		TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return fmt.Errorf("failed to export to parquet: %w", err)
	}

	return nil
}

// GetOutputPath returns the parquet file path.
func (w *ResultsWriter) GetOutputPath() string {
	return w.outputPath
}

// GetRowCount returns the number of rows stored.
func (w *ResultsWriter) GetRowCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, fmt.Errorf("writer not initialized")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count result rows: %w", err)
	}

	return count, nil
}

// Close releases database resources.
func (w *ResultsWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}

		w.db = nil
	}

	return nil
}

// ReadResults loads the rows of a results parquet file.
func ReadResults(path string) ([]types.BacktestRow, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`
		SELECT date, raw_signal, signal, trade_day, safe_asset, strategy_return, strategy_nav
		FROM read_parquet('%s')
		ORDER BY date
	`, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	defer rows.Close()

	var results []types.BacktestRow

	for rows.Next() {
		var (
			row       types.BacktestRow
			date      time.Time
			raw       int
			signal    int
			safeAsset string
		)

		if err := rows.Scan(&date, &raw, &signal, &row.TradeDay, &safeAsset, &row.StrategyReturn, &row.StrategyNAV); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		row.Date = date.UTC()
		row.RawSignal = types.Signal(raw)
		row.Signal = types.Signal(signal)
		row.SafeAsset = types.SafeAsset(safeAsset)
		results = append(results, row)
	}

	return results, rows.Err()
}
