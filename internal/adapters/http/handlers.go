package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// Handler contains all HTTP handlers
type Handler struct {
	aggregator ports.PriceAggregator
	arbitrage  ports.ArbitrageEngine
	registry   ports.ExchangeRegistry
	pairs      ports.PairService
	klines     ports.KlineFetcher
	history    ports.HistoryService // nil when history is disabled
	live       ports.StreamManager
	multi      ports.StreamManager
	logger     *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(
	aggregator ports.PriceAggregator,
	arbitrage ports.ArbitrageEngine,
	registry ports.ExchangeRegistry,
	pairs ports.PairService,
	klines ports.KlineFetcher,
	history ports.HistoryService,
	live ports.StreamManager,
	multi ports.StreamManager,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		aggregator: aggregator,
		arbitrage:  arbitrage,
		registry:   registry,
		pairs:      pairs,
		klines:     klines,
		history:    history,
		live:       live,
		multi:      multi,
		logger:     logger.With("component", "http_handler"),
	}
}

// Health returns service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	healthy := 0
	reports := h.registry.Health()
	for _, report := range reports {
		if report.Status == domain.StatusHealthy {
			healthy++
		}
	}

	status := "healthy"
	if healthy == 0 {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            status,
		"exchanges_total":   len(reports),
		"exchanges_healthy": healthy,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// SymbolsRequest is the body of the batch price endpoints
type SymbolsRequest struct {
	Symbols []string `json:"symbols"`
}

// exchangeEntry is one exchange's answer inside a best-prices result
type exchangeEntry struct {
	Status    string `json:"status"`
	Price     string `json:"price,omitempty"`
	Change24h string `json:"change_24h,omitempty"`
	Volume24h string `json:"volume_24h,omitempty"`
	High24h   string `json:"high_24h,omitempty"`
	Low24h    string `json:"low_24h,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type symbolResult struct {
	Symbol    string                   `json:"symbol"`
	Exchanges map[string]exchangeEntry `json:"exchanges"`
}

// BestPrices finds prices for a symbol batch across all exchanges
func (h *Handler) BestPrices(w http.ResponseWriter, r *http.Request) {
	var req SymbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	book, err := h.aggregator.FindBestPrices(r.Context(), req.Symbols)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	results := make([]symbolResult, len(book.Symbols))
	for i, sq := range book.Symbols {
		entries := make(map[string]exchangeEntry, len(sq.Quotes))
		for _, q := range sq.Quotes {
			if q.Available() {
				entries[q.Exchange] = exchangeEntry{
					Status:    "available",
					Price:     q.Ticker.Price.String(),
					Change24h: q.Ticker.ChangePercent.String(),
					Volume24h: q.Ticker.Volume.String(),
					High24h:   q.Ticker.High.String(),
					Low24h:    q.Ticker.Low.String(),
					Timestamp: q.Ticker.FetchedAt.Format(time.RFC3339),
				}
			} else {
				entries[q.Exchange] = exchangeEntry{
					Status: "unavailable",
					Reason: q.Reason,
				}
			}
		}
		results[i] = symbolResult{Symbol: sq.Symbol, Exchanges: entries}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"timestamp": book.FetchedAt.Format(time.RFC3339),
	})
}

// Arbitrage finds cross-exchange opportunities for a symbol batch
func (h *Handler) Arbitrage(w http.ResponseWriter, r *http.Request) {
	var req SymbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opportunities, err := h.arbitrage.FindOpportunities(r.Context(), req.Symbols)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"arbitrage_opportunities": opportunities,
		"total_opportunities":     len(opportunities),
		"analysis_timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type exchangeHealthEntry struct {
	Status              domain.HealthStatus `json:"status"`
	Priority            int                 `json:"priority"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	LastChecked         string              `json:"last_checked,omitempty"`
	LatencyMs           int64               `json:"latency_ms"`
	LastError           string              `json:"last_error,omitempty"`
}

// ExchangeHealth reports per-exchange health
func (h *Handler) ExchangeHealth(w http.ResponseWriter, r *http.Request) {
	reports := h.registry.Health()

	exchanges := make(map[string]exchangeHealthEntry, len(reports))
	healthy := 0
	for _, report := range reports {
		entry := exchangeHealthEntry{
			Status:              report.Status,
			Priority:            report.Priority,
			ConsecutiveFailures: report.ConsecutiveFailures,
			LatencyMs:           report.LastLatency.Milliseconds(),
			LastError:           report.LastError,
		}
		if !report.LastChecked.IsZero() {
			entry.LastChecked = report.LastChecked.Format(time.RFC3339)
		}
		exchanges[report.Name] = entry
		if report.Status == domain.StatusHealthy {
			healthy++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"exchanges":         exchanges,
		"total_exchanges":   len(reports),
		"healthy_exchanges": healthy,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// ExchangeCoverage reports the configured adapter set and capabilities
func (h *Handler) ExchangeCoverage(w http.ResponseWriter, r *http.Request) {
	adapters := h.registry.Adapters()

	exchanges := make(map[string]interface{}, len(adapters))
	for _, a := range adapters {
		exchanges[a.Name()] = map[string]interface{}{
			"priority":     a.Priority(),
			"capabilities": a.Capabilities(),
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"exchanges":       exchanges,
		"total_exchanges": len(adapters),
		"capabilities": []string{
			"multi-exchange price comparison",
			"arbitrage opportunity detection",
			"failover routing",
			"real-time health monitoring",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListPairs returns the cached symbol list
func (h *Handler) ListPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.pairs.ListPairs(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pairs": pairs,
		"total": len(pairs),
	})
}

// RefreshPairs refetches the symbol list
func (h *Handler) RefreshPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.pairs.RefreshPairs(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pairs":     pairs,
		"total":     len(pairs),
		"refreshed": true,
	})
}

// Klines returns OHLCV candles from the primary exchange
func (h *Handler) Klines(w http.ResponseWriter, r *http.Request) {
	if h.klines == nil {
		handleDomainError(w, domain.ErrExchangeUnavailable)
		return
	}

	symbol := domain.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if err := domain.ValidateSymbolName(symbol); err != nil {
		handleDomainError(w, err)
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1h"
	}

	limit := 100
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	klines, err := h.klines.FetchKlines(r.Context(), symbol, interval, limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"klines":   klines,
		"total":    len(klines),
	})
}

// historyItem is one persisted quote in the API response
type historyItem struct {
	Exchange   string `json:"exchange"`
	Price      string `json:"price"`
	RecordedAt string `json:"recorded_at"`
}

// History returns persisted best-price snapshots for a symbol
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		handleDomainError(w, domain.ErrHistoryDisabled)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol parameter is required")
		return
	}

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil {
			limit = l
		}
	}

	snapshots, err := h.history.History(r.Context(), symbol, limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	items := make([]historyItem, len(snapshots))
	for i, s := range snapshots {
		items[i] = historyItem{
			Exchange:   s.Exchange,
			Price:      s.Price.String(),
			RecordedAt: s.RecordedAt.Format(time.RFC3339),
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": domain.NormalizeSymbol(symbol),
		"items":  items,
	})
}

// StreamStats reports active WebSocket subscriptions across all stream
// managers
func (h *Handler) StreamStats(w http.ResponseWriter, r *http.Request) {
	merged := h.live.Stats().Merge(h.multi.Stats())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_symbols":         merged.TotalSymbols,
		"total_connections":     merged.TotalConnections,
		"connections_by_symbol": merged.BySymbol,
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
	})
}
