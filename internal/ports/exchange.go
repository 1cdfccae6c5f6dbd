package ports

import (
	"context"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

// ExchangeAdapter is a normalized client for one exchange's public REST
// API. Adapters honor the caller's context deadline and never return
// partial data on timeout.
type ExchangeAdapter interface {
	// Name returns the adapter's exchange identifier (e.g. "binance")
	Name() string

	// Priority returns the adapter's rank; lower is preferred
	Priority() int

	// Capabilities reports which markets the exchange serves
	Capabilities() domain.Capabilities

	// FetchTicker fetches the current ticker for a canonical symbol
	FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error)

	// FetchSymbols fetches the exchange's spot symbols in canonical form
	FetchSymbols(ctx context.Context) ([]string, error)
}

// KlineFetcher is an optional adapter capability for OHLCV candles.
type KlineFetcher interface {
	// FetchKlines fetches up to limit candles for symbol at interval
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error)
}

// ExchangeRegistry holds the ordered set of configured adapters and
// their health state.
type ExchangeRegistry interface {
	// Adapters returns all adapters ordered by priority ascending
	Adapters() []ExchangeAdapter

	// RecordResult updates an adapter's health after a call
	RecordResult(name string, ok bool, latency time.Duration, callErr error)

	// Health returns per-adapter health ordered by priority ascending
	Health() []domain.ExchangeHealth
}
