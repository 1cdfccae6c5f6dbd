package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// FailoverSource serves single-symbol tickers by trying adapters in
// priority order, healthy exchanges first, until one answers. Used by
// the streaming loops, where one good quote is enough.
type FailoverSource struct {
	registry       ports.ExchangeRegistry
	adapterTimeout time.Duration
	logger         *slog.Logger
}

// NewFailoverSource creates a failover ticker source over the registry.
func NewFailoverSource(registry ports.ExchangeRegistry, adapterTimeout time.Duration, logger *slog.Logger) *FailoverSource {
	return &FailoverSource{
		registry:       registry,
		adapterTimeout: adapterTimeout,
		logger:         logger.With("component", "failover_source"),
	}
}

// FetchTicker returns the first successful ticker, preferring healthy
// adapters. Unhealthy adapters are still tried last so a recovered
// exchange can report a success and flip back to healthy.
func (s *FailoverSource) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	healthy := make(map[string]bool)
	for _, h := range s.registry.Health() {
		healthy[h.Name] = h.Status == domain.StatusHealthy
	}

	adapters := s.registry.Adapters()
	ordered := make([]ports.ExchangeAdapter, 0, len(adapters))
	for _, a := range adapters {
		if healthy[a.Name()] {
			ordered = append(ordered, a)
		}
	}
	for _, a := range adapters {
		if !healthy[a.Name()] {
			ordered = append(ordered, a)
		}
	}

	var lastErr error
	for _, adapter := range ordered {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		callCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
		started := time.Now()
		ticker, err := adapter.FetchTicker(callCtx, symbol)
		latency := time.Since(started)
		cancel()

		s.registry.RecordResult(adapter.Name(), err == nil, latency, err)

		if err == nil {
			return ticker, nil
		}
		lastErr = err
		s.logger.Debug("failover source falling through",
			"exchange", adapter.Name(),
			"symbol", symbol,
			"error", err,
		)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoData, lastErr)
	}
	return nil, domain.ErrNoData
}

var _ ports.TickerSource = (*FailoverSource)(nil)
