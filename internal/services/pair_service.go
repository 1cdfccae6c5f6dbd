package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
	"github.com/chumbacash/pebble-crypto-backend/pkg/retry"
)

// PairService serves the tradable symbol list of the primary exchange
// through a long-lived cache. The cache has no TTL; it is replaced only
// by an explicit refresh or a process restart.
type PairService struct {
	primary   ports.ExchangeAdapter
	cache     ports.SymbolCache
	retryConf retry.Config
	logger    *slog.Logger
}

// NewPairService creates a pair service backed by the primary adapter.
func NewPairService(primary ports.ExchangeAdapter, cache ports.SymbolCache, logger *slog.Logger) *PairService {
	return &PairService{
		primary:   primary,
		cache:     cache,
		retryConf: retry.DefaultConfig(),
		logger:    logger.With("component", "pair_service"),
	}
}

func (s *PairService) cacheKey() string {
	return "symbols:" + s.primary.Name()
}

// ListPairs returns the cached symbol list, fetching from the exchange
// on a cache miss.
func (s *PairService) ListPairs(ctx context.Context) ([]string, error) {
	symbols, err := s.cache.Get(ctx, s.cacheKey())
	if err == nil {
		return symbols, nil
	}
	if err != domain.ErrCacheMiss {
		s.logger.Warn("symbol cache read failed", "error", err)
	}
	return s.RefreshPairs(ctx)
}

// RefreshPairs refetches the symbol list and replaces the cache entry.
// The upstream call retries with backoff; symbol lists are off the
// latency-critical path.
func (s *PairService) RefreshPairs(ctx context.Context) ([]string, error) {
	symbols, err := retry.DoWithResult(ctx, s.retryConf, func(ctx context.Context) ([]string, error) {
		symbols, err := s.primary.FetchSymbols(ctx)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		return symbols, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(symbols)

	if err := s.cache.Set(ctx, s.cacheKey(), symbols); err != nil {
		s.logger.Warn("symbol cache write failed", "error", err)
	}

	s.logger.Info("symbol list refreshed",
		"exchange", s.primary.Name(),
		"symbols", len(symbols),
	)
	return symbols, nil
}

var _ ports.PairService = (*PairService)(nil)
