package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// ArbitrageService derives cross-exchange opportunities from aggregated
// price books.
type ArbitrageService struct {
	aggregator ports.PriceAggregator
	minSpread  decimal.Decimal
	maxSymbols int
	logger     *slog.Logger
}

// NewArbitrageService creates an arbitrage engine on top of the
// aggregator. minSpreadPercent is the exclusive lower bound for
// reported spreads.
func NewArbitrageService(
	aggregator ports.PriceAggregator,
	minSpreadPercent float64,
	maxSymbols int,
	logger *slog.Logger,
) *ArbitrageService {
	return &ArbitrageService{
		aggregator: aggregator,
		minSpread:  decimal.NewFromFloat(minSpreadPercent),
		maxSymbols: maxSymbols,
		logger:     logger.With("component", "arbitrage_engine"),
	}
}

// FindOpportunities aggregates prices for symbols and extracts the
// opportunities above the spread threshold.
func (s *ArbitrageService) FindOpportunities(ctx context.Context, symbols []string) ([]domain.ArbitrageOpportunity, error) {
	if _, err := ValidateSymbols(symbols, s.maxSymbols); err != nil {
		return nil, err
	}

	book, err := s.aggregator.FindBestPrices(ctx, symbols)
	if err != nil {
		return nil, err
	}

	opportunities := Opportunities(book, s.minSpread)
	s.logger.Debug("arbitrage analysis completed",
		"symbols", len(symbols),
		"opportunities", len(opportunities),
	)
	return opportunities, nil
}

// Opportunities computes the arbitrage opportunities in a price book.
// Per symbol, at least two usable quotes are required; the cheapest and
// dearest exchanges define the opportunity. Price ties resolve toward
// the higher-priority exchange, which scans first. Results are ordered
// by spread descending, with symbol order breaking ties.
func Opportunities(book *domain.PriceBook, minSpreadPercent decimal.Decimal) []domain.ArbitrageOpportunity {
	opportunities := make([]domain.ArbitrageOpportunity, 0)

	for _, sq := range book.Symbols {
		usable := sq.Usable()
		if len(usable) < 2 {
			continue
		}

		buy, sell := usable[0], usable[0]
		for _, q := range usable[1:] {
			if q.Ticker.Price.LessThan(buy.Ticker.Price) {
				buy = q
			}
			if q.Ticker.Price.GreaterThan(sell.Ticker.Price) {
				sell = q
			}
		}

		spread := domain.SpreadPercent(buy.Ticker.Price, sell.Ticker.Price)
		if !spread.GreaterThan(minSpreadPercent) {
			continue
		}

		opportunities = append(opportunities, domain.ArbitrageOpportunity{
			Symbol:        sq.Symbol,
			BuyExchange:   buy.Exchange,
			SellExchange:  sell.Exchange,
			BuyPrice:      buy.Ticker.Price,
			SellPrice:     sell.Ticker.Price,
			SpreadPercent: spread.Round(4),
			ProfitPerUnit: sell.Ticker.Price.Sub(buy.Ticker.Price).Round(6),
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		cmp := opportunities[i].SpreadPercent.Cmp(opportunities[j].SpreadPercent)
		if cmp != 0 {
			return cmp > 0
		}
		return opportunities[i].Symbol < opportunities[j].Symbol
	})

	return opportunities
}

var _ ports.ArbitrageEngine = (*ArbitrageService)(nil)
