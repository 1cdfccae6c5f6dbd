package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
	"github.com/chumbacash/pebble-crypto-backend/pkg/retry"
)

// HistoryService records aggregated best-price quotes into the snapshot
// repository and serves them back.
type HistoryService struct {
	aggregator ports.PriceAggregator
	repo       ports.SnapshotRepository
	symbols    []string
	retention  time.Duration
	retryConf  retry.Config
	logger     *slog.Logger
}

// NewHistoryService creates a history service recording the configured
// symbols.
func NewHistoryService(
	aggregator ports.PriceAggregator,
	repo ports.SnapshotRepository,
	symbols []string,
	retention time.Duration,
	logger *slog.Logger,
) *HistoryService {
	return &HistoryService{
		aggregator: aggregator,
		repo:       repo,
		symbols:    symbols,
		retention:  retention,
		retryConf:  retry.DefaultConfig(),
		logger:     logger.With("component", "history_service"),
	}
}

// RecordOnce aggregates the configured symbols and persists every
// usable quote, then prunes snapshots past retention.
func (s *HistoryService) RecordOnce(ctx context.Context) error {
	book, err := s.aggregator.FindBestPrices(ctx, s.symbols)
	if err != nil {
		return err
	}

	var snapshots []*domain.QuoteSnapshot
	for _, sq := range book.Symbols {
		for _, q := range sq.Usable() {
			snapshots = append(snapshots, domain.NewQuoteSnapshot(q.Ticker))
		}
	}

	if len(snapshots) == 0 {
		s.logger.Warn("no usable quotes to record")
		return nil
	}

	err = retry.Do(ctx, s.retryConf, func(ctx context.Context) error {
		if err := s.repo.InsertBatch(ctx, snapshots); err != nil {
			return retry.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.retention > 0 {
		pruned, err := s.repo.Prune(ctx, time.Now().UTC().Add(-s.retention))
		if err != nil {
			s.logger.Error("snapshot prune failed", "error", err)
		} else if pruned > 0 {
			s.logger.Debug("pruned old snapshots", "count", pruned)
		}
	}

	s.logger.Debug("recorded snapshots", "count", len(snapshots))
	return nil
}

// History returns the most recent snapshots for a symbol, newest first.
func (s *HistoryService) History(ctx context.Context, symbol string, limit int) ([]domain.QuoteSnapshot, error) {
	normalized := domain.NormalizeSymbol(symbol)
	if err := domain.ValidateSymbolName(normalized); err != nil {
		return nil, err
	}

	if limit < 1 || limit > 1000 {
		limit = 100
	}

	return s.repo.LatestBySymbol(ctx, normalized, limit)
}

var _ ports.HistoryService = (*HistoryService)(nil)
