package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/qqq3x-signal/pkg/marketdata/provider Provider,HistoryProvider,QuoteProvider
