package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// AggregatorService fans a batch of symbols out to every registered
// exchange concurrently and merges the answers into a price book.
// Adapter failures never fail the batch; they become structured
// unavailable entries.
type AggregatorService struct {
	registry       ports.ExchangeRegistry
	adapterTimeout time.Duration
	maxSymbols     int
	maxConcurrency int
	logger         *slog.Logger
}

// NewAggregatorService creates an aggregator over the given registry.
func NewAggregatorService(
	registry ports.ExchangeRegistry,
	adapterTimeout time.Duration,
	maxSymbols int,
	maxConcurrency int,
	logger *slog.Logger,
) *AggregatorService {
	return &AggregatorService{
		registry:       registry,
		adapterTimeout: adapterTimeout,
		maxSymbols:     maxSymbols,
		maxConcurrency: maxConcurrency,
		logger:         logger.With("component", "price_aggregator"),
	}
}

// ValidateSymbols normalizes and validates a request batch against the
// given size cap without touching the network.
func ValidateSymbols(symbols []string, maxSymbols int) ([]string, error) {
	if len(symbols) == 0 {
		return nil, domain.ErrEmptySymbols
	}
	if len(symbols) > maxSymbols {
		return nil, fmt.Errorf("%w: got %d, maximum %d", domain.ErrTooManySymbols, len(symbols), maxSymbols)
	}

	out := make([]string, len(symbols))
	for i, s := range symbols {
		normalized := domain.NormalizeSymbol(s)
		if err := domain.ValidateSymbolName(normalized); err != nil {
			return nil, fmt.Errorf("%w: %q", err, s)
		}
		out[i] = normalized
	}
	return out, nil
}

// FindBestPrices queries every adapter for every symbol concurrently.
// Symbols keep their request order; quotes within a symbol keep the
// registry's priority order. Each adapter call is bounded by the
// per-adapter timeout and isolated from the others, so the wall clock
// for the whole batch is roughly one adapter timeout, not their sum.
func (a *AggregatorService) FindBestPrices(ctx context.Context, symbols []string) (*domain.PriceBook, error) {
	normalized, err := ValidateSymbols(symbols, a.maxSymbols)
	if err != nil {
		return nil, err
	}

	adapters := a.registry.Adapters()
	started := time.Now()

	// Each goroutine owns exactly one pre-allocated slot, so the grid
	// needs no locking.
	grid := make([][]domain.Quote, len(normalized))
	for i := range grid {
		grid[i] = make([]domain.Quote, len(adapters))
	}

	g := new(errgroup.Group)
	g.SetLimit(a.maxConcurrency)

	for si, symbol := range normalized {
		for ai, adapter := range adapters {
			g.Go(func() error {
				grid[si][ai] = a.fetchQuote(ctx, adapter, symbol)
				return nil
			})
		}
	}
	// Goroutines only report into the grid; the group never carries an
	// error.
	_ = g.Wait()

	book := &domain.PriceBook{
		Symbols:   make([]domain.SymbolQuotes, len(normalized)),
		FetchedAt: time.Now().UTC(),
	}
	for i, symbol := range normalized {
		book.Symbols[i] = domain.SymbolQuotes{Symbol: symbol, Quotes: grid[i]}
	}

	a.logger.Debug("aggregation completed",
		"symbols", len(normalized),
		"exchanges", len(adapters),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	return book, nil
}

func (a *AggregatorService) fetchQuote(ctx context.Context, adapter ports.ExchangeAdapter, symbol string) domain.Quote {
	callCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
	defer cancel()

	started := time.Now()
	ticker, err := adapter.FetchTicker(callCtx, symbol)
	latency := time.Since(started)

	a.registry.RecordResult(adapter.Name(), err == nil, latency, err)

	if err != nil {
		a.logger.Debug("adapter call failed",
			"exchange", adapter.Name(),
			"symbol", symbol,
			"error", err,
		)
		return domain.Quote{Exchange: adapter.Name(), Reason: domain.UnavailableReason(err)}
	}

	return domain.Quote{Exchange: adapter.Name(), Ticker: ticker}
}

var _ ports.PriceAggregator = (*AggregatorService)(nil)
