package ports

import (
	"context"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

// PriceAggregator fans a batch of symbols out to every registered
// exchange and merges the answers into a price book.
type PriceAggregator interface {
	// FindBestPrices queries all adapters concurrently for each symbol.
	// Returns a validation error for empty or oversized batches before
	// any network call is made; adapter failures are recorded in the
	// book, never returned.
	FindBestPrices(ctx context.Context, symbols []string) (*domain.PriceBook, error)
}

// ArbitrageEngine detects cross-exchange price gaps.
type ArbitrageEngine interface {
	// FindOpportunities aggregates prices for symbols and returns the
	// opportunities above the configured spread threshold, ordered by
	// descending spread
	FindOpportunities(ctx context.Context, symbols []string) ([]domain.ArbitrageOpportunity, error)
}

// TickerSource provides single-symbol tickers for streaming; the live
// implementation fails over across exchanges by priority.
type TickerSource interface {
	FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error)
}

// PairService serves the cached list of tradable symbols.
type PairService interface {
	// ListPairs returns the cached symbol list, fetching it on a miss
	ListPairs(ctx context.Context) ([]string, error)

	// RefreshPairs refetches the symbol list and replaces the cache
	RefreshPairs(ctx context.Context) ([]string, error)
}

// HistoryService records and serves persisted best-price snapshots.
type HistoryService interface {
	// RecordOnce aggregates the configured symbols and persists every
	// usable quote
	RecordOnce(ctx context.Context) error

	// History returns the most recent snapshots for a symbol
	History(ctx context.Context, symbol string, limit int) ([]domain.QuoteSnapshot, error)
}
