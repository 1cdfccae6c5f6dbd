package http

import (
	"log/slog"
	"net/http"
)

// NewRouter creates the HTTP router with all routes
func NewRouter(h *Handler, limiter *RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.Health)

	// REST API, rate limited per client IP
	api := http.NewServeMux()
	api.HandleFunc("POST /api/exchanges/best-prices", h.BestPrices)
	api.HandleFunc("POST /api/exchanges/arbitrage", h.Arbitrage)
	api.HandleFunc("GET /api/exchanges/health", h.ExchangeHealth)
	api.HandleFunc("GET /api/exchanges/coverage", h.ExchangeCoverage)
	api.HandleFunc("GET /api/pairs", h.ListPairs)
	api.HandleFunc("POST /api/pairs/refresh", h.RefreshPairs)
	api.HandleFunc("GET /api/market/klines", h.Klines)
	api.HandleFunc("GET /api/history", h.History)
	mux.Handle("/api/", limiter.Middleware(api))

	// WebSocket streaming, exempt from the rate limiter
	mux.HandleFunc("GET /ws/live/{symbol}", h.LiveStream)
	mux.HandleFunc("GET /ws/multi", h.MultiStream)
	mux.HandleFunc("GET /ws/connections", h.StreamStats)

	// Apply middleware chain (order matters: outer -> inner)
	var handler http.Handler = mux
	handler = CORSMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)

	return handler
}
