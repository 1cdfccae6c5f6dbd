package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/chumbacash/pebble-crypto-backend/internal/adapters/http"
	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// Mock implementations for testing

type mockAggregator struct {
	book *domain.PriceBook
	err  error
}

func (m *mockAggregator) FindBestPrices(ctx context.Context, symbols []string) (*domain.PriceBook, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.book, nil
}

type mockArbitrage struct {
	opportunities []domain.ArbitrageOpportunity
	err           error
}

func (m *mockArbitrage) FindOpportunities(ctx context.Context, symbols []string) ([]domain.ArbitrageOpportunity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.opportunities, nil
}

type mockRegistry struct {
	health []domain.ExchangeHealth
}

func (m *mockRegistry) Adapters() []ports.ExchangeAdapter { return nil }

func (m *mockRegistry) RecordResult(name string, ok bool, latency time.Duration, callErr error) {}

func (m *mockRegistry) Health() []domain.ExchangeHealth { return m.health }

type mockPairService struct {
	pairs []string
	err   error
}

func (m *mockPairService) ListPairs(ctx context.Context) ([]string, error) {
	return m.pairs, m.err
}

func (m *mockPairService) RefreshPairs(ctx context.Context) ([]string, error) {
	return m.pairs, m.err
}

type mockKlineFetcher struct {
	klines []domain.Kline
	err    error
}

func (m *mockKlineFetcher) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.klines, nil
}

type mockHistoryService struct {
	snapshots []domain.QuoteSnapshot
	err       error
}

func (m *mockHistoryService) RecordOnce(ctx context.Context) error { return nil }

func (m *mockHistoryService) History(ctx context.Context, symbol string, limit int) ([]domain.QuoteSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshots, nil
}

type mockStreamManager struct {
	stats domain.StreamStats
}

func (m *mockStreamManager) Subscribe(connID string, sink ports.StreamSink, symbols []string) []string {
	return symbols
}

func (m *mockStreamManager) Unsubscribe(connID string, symbols []string) []string { return nil }

func (m *mockStreamManager) Disconnect(connID string) {}

func (m *mockStreamManager) Stats() domain.StreamStats { return m.stats }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type handlerMocks struct {
	aggregator *mockAggregator
	arbitrage  *mockArbitrage
	registry   *mockRegistry
	pairs      *mockPairService
	klines     *mockKlineFetcher
	history    ports.HistoryService
	live       *mockStreamManager
	multi      *mockStreamManager
}

func newTestHandler(m handlerMocks) *httpAdapter.Handler {
	if m.aggregator == nil {
		m.aggregator = &mockAggregator{}
	}
	if m.arbitrage == nil {
		m.arbitrage = &mockArbitrage{}
	}
	if m.registry == nil {
		m.registry = &mockRegistry{}
	}
	if m.pairs == nil {
		m.pairs = &mockPairService{}
	}
	if m.klines == nil {
		m.klines = &mockKlineFetcher{}
	}
	if m.live == nil {
		m.live = &mockStreamManager{stats: domain.StreamStats{BySymbol: map[string]int{}}}
	}
	if m.multi == nil {
		m.multi = &mockStreamManager{stats: domain.StreamStats{BySymbol: map[string]int{}}}
	}
	return httpAdapter.NewHandler(
		m.aggregator,
		m.arbitrage,
		m.registry,
		m.pairs,
		m.klines,
		m.history,
		m.live,
		m.multi,
		newTestLogger(),
	)
}

func availableQuote(exchange string, price float64) domain.Quote {
	return domain.Quote{
		Exchange: exchange,
		Ticker: &domain.Ticker{
			Symbol:        "BTCUSDT",
			Price:         decimal.NewFromFloat(price),
			ChangePercent: decimal.NewFromFloat(1.2),
			Exchange:      exchange,
			FetchedAt:     time.Now().UTC(),
		},
	}
}

func TestHandler_BestPrices(t *testing.T) {
	t.Run("renders available and unavailable exchanges", func(t *testing.T) {
		book := &domain.PriceBook{
			Symbols: []domain.SymbolQuotes{{
				Symbol: "BTCUSDT",
				Quotes: []domain.Quote{
					availableQuote("binance", 50000),
					{Exchange: "kucoin", Reason: "timeout"},
				},
			}},
			FetchedAt: time.Now().UTC(),
		}
		handler := newTestHandler(handlerMocks{aggregator: &mockAggregator{book: book}})

		body := bytes.NewBufferString(`{"symbols": ["BTCUSDT"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/exchanges/best-prices", body)
		rec := httptest.NewRecorder()

		handler.BestPrices(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			Results []struct {
				Symbol    string                       `json:"symbol"`
				Exchanges map[string]map[string]string `json:"exchanges"`
			} `json:"results"`
			Timestamp string `json:"timestamp"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Results, 1)

		result := response.Results[0]
		assert.Equal(t, "BTCUSDT", result.Symbol)
		assert.Equal(t, "available", result.Exchanges["binance"]["status"])
		assert.Equal(t, "50000", result.Exchanges["binance"]["price"])
		assert.Equal(t, "unavailable", result.Exchanges["kucoin"]["status"])
		assert.Equal(t, "timeout", result.Exchanges["kucoin"]["reason"])
		assert.NotEmpty(t, response.Timestamp)
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{})

		body := bytes.NewBufferString(`not json`)
		req := httptest.NewRequest(http.MethodPost, "/api/exchanges/best-prices", body)
		rec := httptest.NewRecorder()

		handler.BestPrices(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 for oversized batches", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			aggregator: &mockAggregator{err: domain.ErrTooManySymbols},
		})

		body := bytes.NewBufferString(`{"symbols": ["BTCUSDT"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/exchanges/best-prices", body)
		rec := httptest.NewRecorder()

		handler.BestPrices(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response httpAdapter.ErrorResponse
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "TOO_MANY_SYMBOLS", response.Code)
	})

	t.Run("returns 400 for empty batches", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			aggregator: &mockAggregator{err: domain.ErrEmptySymbols},
		})

		body := bytes.NewBufferString(`{"symbols": []}`)
		req := httptest.NewRequest(http.MethodPost, "/api/exchanges/best-prices", body)
		rec := httptest.NewRecorder()

		handler.BestPrices(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Arbitrage(t *testing.T) {
	t.Run("returns opportunities with count and timestamp", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			arbitrage: &mockArbitrage{opportunities: []domain.ArbitrageOpportunity{{
				Symbol:        "BTCUSDT",
				BuyExchange:   "binance",
				SellExchange:  "kucoin",
				BuyPrice:      decimal.NewFromInt(50000),
				SellPrice:     decimal.NewFromInt(50100),
				SpreadPercent: decimal.NewFromFloat(0.2),
				ProfitPerUnit: decimal.NewFromInt(100),
			}}},
		})

		body := bytes.NewBufferString(`{"symbols": ["BTCUSDT"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/exchanges/arbitrage", body)
		rec := httptest.NewRecorder()

		handler.Arbitrage(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response map[string]interface{}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, float64(1), response["total_opportunities"])
		assert.NotEmpty(t, response["analysis_timestamp"])

		opportunities, ok := response["arbitrage_opportunities"].([]interface{})
		require.True(t, ok)
		first, ok := opportunities[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "binance", first["buy_exchange"])
		assert.Equal(t, "kucoin", first["sell_exchange"])
	})

	t.Run("empty result keeps the array shape", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			arbitrage: &mockArbitrage{opportunities: []domain.ArbitrageOpportunity{}},
		})

		body := bytes.NewBufferString(`{"symbols": ["BTCUSDT"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/exchanges/arbitrage", body)
		rec := httptest.NewRecorder()

		handler.Arbitrage(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"arbitrage_opportunities":[]`)
	})
}

func TestHandler_ExchangeHealth(t *testing.T) {
	t.Run("reports per-exchange status", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			registry: &mockRegistry{health: []domain.ExchangeHealth{
				{Name: "binance", Priority: 1, Status: domain.StatusHealthy, LastChecked: time.Now().UTC(), LastLatency: 42 * time.Millisecond},
				{Name: "kucoin", Priority: 2, Status: domain.StatusUnhealthy, ConsecutiveFailures: 5, LastError: "timeout"},
			}},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/exchanges/health", nil)
		rec := httptest.NewRecorder()

		handler.ExchangeHealth(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			Exchanges map[string]struct {
				Status              string `json:"status"`
				Priority            int    `json:"priority"`
				ConsecutiveFailures int    `json:"consecutive_failures"`
				LastError           string `json:"last_error"`
			} `json:"exchanges"`
			TotalExchanges   int `json:"total_exchanges"`
			HealthyExchanges int `json:"healthy_exchanges"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, 2, response.TotalExchanges)
		assert.Equal(t, 1, response.HealthyExchanges)
		assert.Equal(t, "healthy", response.Exchanges["binance"].Status)
		assert.Equal(t, "unhealthy", response.Exchanges["kucoin"].Status)
		assert.Equal(t, 5, response.Exchanges["kucoin"].ConsecutiveFailures)
		assert.Equal(t, "timeout", response.Exchanges["kucoin"].LastError)
	})
}

func TestHandler_Pairs(t *testing.T) {
	t.Run("lists cached pairs", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			pairs: &mockPairService{pairs: []string{"BTCUSDT", "ETHUSDT"}},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/pairs", nil)
		rec := httptest.NewRecorder()

		handler.ListPairs(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			Pairs []string `json:"pairs"`
			Total int      `json:"total"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, response.Pairs)
		assert.Equal(t, 2, response.Total)
	})

	t.Run("maps upstream failure to 503", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			pairs: &mockPairService{err: domain.ErrExchangeUnavailable},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/pairs", nil)
		rec := httptest.NewRecorder()

		handler.ListPairs(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandler_Klines(t *testing.T) {
	t.Run("serves candles with defaults", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			klines: &mockKlineFetcher{klines: []domain.Kline{{
				OpenTime: time.Now().UTC(),
				Open:     decimal.NewFromInt(50000),
				Close:    decimal.NewFromInt(50200),
			}}},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/market/klines?symbol=btcusdt", nil)
		rec := httptest.NewRecorder()

		handler.Klines(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response map[string]interface{}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "BTCUSDT", response["symbol"])
		assert.Equal(t, "1h", response["interval"])
		assert.Equal(t, float64(1), response["total"])
	})

	t.Run("returns 400 for invalid intervals", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			klines: &mockKlineFetcher{err: domain.ErrInvalidInterval},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/market/klines?symbol=BTCUSDT&interval=7m", nil)
		rec := httptest.NewRecorder()

		handler.Klines(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 for missing symbol", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{})

		req := httptest.NewRequest(http.MethodGet, "/api/market/klines", nil)
		rec := httptest.NewRecorder()

		handler.Klines(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_History(t *testing.T) {
	t.Run("returns 501 when history is disabled", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{history: nil})

		req := httptest.NewRequest(http.MethodGet, "/api/history?symbol=BTCUSDT", nil)
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		assert.Equal(t, http.StatusNotImplemented, rec.Code)

		var response httpAdapter.ErrorResponse
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "HISTORY_DISABLED", response.Code)
	})

	t.Run("serves persisted snapshots", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			history: &mockHistoryService{snapshots: []domain.QuoteSnapshot{{
				Symbol:     "BTCUSDT",
				Exchange:   "binance",
				Price:      decimal.NewFromInt(50000),
				RecordedAt: time.Now().UTC(),
			}}},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/history?symbol=BTCUSDT&limit=10", nil)
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			Symbol string `json:"symbol"`
			Items  []struct {
				Exchange string `json:"exchange"`
				Price    string `json:"price"`
			} `json:"items"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "BTCUSDT", response.Symbol)
		require.Len(t, response.Items, 1)
		assert.Equal(t, "binance", response.Items[0].Exchange)
		assert.Equal(t, "50000", response.Items[0].Price)
	})

	t.Run("requires the symbol parameter", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{history: &mockHistoryService{}})

		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		rec := httptest.NewRecorder()

		handler.History(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_StreamStats(t *testing.T) {
	t.Run("merges both stream managers", func(t *testing.T) {
		handler := newTestHandler(handlerMocks{
			live: &mockStreamManager{stats: domain.StreamStats{
				TotalSymbols:     1,
				TotalConnections: 2,
				BySymbol:         map[string]int{"BTCUSDT": 2},
			}},
			multi: &mockStreamManager{stats: domain.StreamStats{
				TotalSymbols:     2,
				TotalConnections: 1,
				BySymbol:         map[string]int{"BTCUSDT": 1, "ETHUSDT": 1},
			}},
		})

		req := httptest.NewRequest(http.MethodGet, "/ws/connections", nil)
		rec := httptest.NewRecorder()

		handler.StreamStats(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			TotalSymbols        int            `json:"total_symbols"`
			TotalConnections    int            `json:"total_connections"`
			ConnectionsBySymbol map[string]int `json:"connections_by_symbol"`
		}
		err := json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, 2, response.TotalSymbols)
		assert.Equal(t, 3, response.TotalConnections)
		assert.Equal(t, 3, response.ConnectionsBySymbol["BTCUSDT"])
		assert.Equal(t, 1, response.ConnectionsBySymbol["ETHUSDT"])
	})
}
