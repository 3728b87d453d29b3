package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/qqq3x-signal/internal/logger"
	"github.com/stretchr/testify/suite"
)

type BacktestCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestBacktestCmdSuite(t *testing.T) {
	suite.Run(t, new(BacktestCmdTestSuite))
}

func (suite *BacktestCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *BacktestCmdTestSuite) TestNewEngineWithDefaults() {
	backtester, err := newEngine("", filepath.Join(suite.tempDir, "*.parquet"), suite.tempDir)
	suite.Require().NoError(err)

	schema, err := backtester.GetConfigSchema()
	suite.NoError(err)
	suite.Contains(schema, "target_leverage")
}

func (suite *BacktestCmdTestSuite) TestNewEngineWithConfigFile() {
	configPath := filepath.Join(suite.tempDir, "config.yaml")
	suite.Require().NoError(os.WriteFile(configPath, []byte("safe_ratio: 0.3\n"), 0644))

	_, err := newEngine(configPath, filepath.Join(suite.tempDir, "*.parquet"), suite.tempDir)
	suite.NoError(err)
}

func (suite *BacktestCmdTestSuite) TestNewEngineErrors() {
	_, err := newEngine(filepath.Join(suite.tempDir, "missing.yaml"), "*.parquet", suite.tempDir)
	suite.ErrorContains(err, "failed to read config")

	configPath := filepath.Join(suite.tempDir, "bad.yaml")
	suite.Require().NoError(os.WriteFile(configPath, []byte("safe_ratio: 2\n"), 0644))

	_, err = newEngine(configPath, "*.parquet", suite.tempDir)
	suite.Error(err)

	_, err = newEngine("", "[", suite.tempDir)
	suite.Error(err)
}

func (suite *BacktestCmdTestSuite) TestCallbacks() {
	callbacks := newCallbacks(logger.NewNopLogger(), true)

	suite.NotNil(callbacks.OnBacktestStart)
	suite.NotNil(callbacks.OnBacktestEnd)
	suite.NotNil(callbacks.OnRunStart)
	suite.NotNil(callbacks.OnRunEnd)
	suite.NotNil(callbacks.OnProcessData)

	suite.NoError((*callbacks.OnBacktestStart)(1))
	suite.NoError((*callbacks.OnRunStart)("run", 0, "bars.parquet", 10))
	suite.NoError((*callbacks.OnProcessData)(5, 10))
	(*callbacks.OnRunEnd)(0, "bars.parquet", suite.tempDir)
	(*callbacks.OnBacktestEnd)(nil)
}
