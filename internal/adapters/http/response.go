package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

// Response helpers for consistent JSON responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErrorWithCode sends an error response with an error code
func respondErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps domain errors to HTTP responses
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptySymbols):
		respondErrorWithCode(w, http.StatusBadRequest, "symbols list is required", "EMPTY_SYMBOLS")

	case errors.Is(err, domain.ErrTooManySymbols):
		respondErrorWithCode(w, http.StatusBadRequest, err.Error(), "TOO_MANY_SYMBOLS")

	case errors.Is(err, domain.ErrInvalidSymbol):
		respondErrorWithCode(w, http.StatusBadRequest, "invalid symbol format", "INVALID_SYMBOL")

	case errors.Is(err, domain.ErrInvalidInterval):
		respondErrorWithCode(w, http.StatusBadRequest, "unsupported kline interval", "INVALID_INTERVAL")

	case errors.Is(err, domain.ErrSymbolNotListed):
		respondErrorWithCode(w, http.StatusNotFound, "symbol not listed on exchange", "SYMBOL_NOT_LISTED")

	case errors.Is(err, domain.ErrHistoryDisabled):
		respondErrorWithCode(w, http.StatusNotImplemented, "price history is disabled", "HISTORY_DISABLED")

	case errors.Is(err, domain.ErrRateLimited):
		respondErrorWithCode(w, http.StatusTooManyRequests, "rate limited by exchange", "RATE_LIMITED")

	case errors.Is(err, domain.ErrExchangeTimeout), errors.Is(err, domain.ErrExchangeUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "exchange unavailable", "EXCHANGE_UNAVAILABLE")

	case errors.Is(err, domain.ErrInvalidResponse):
		respondErrorWithCode(w, http.StatusBadGateway, "invalid response from exchange", "INVALID_EXCHANGE_RESPONSE")

	case errors.Is(err, domain.ErrNoData):
		respondErrorWithCode(w, http.StatusNotFound, "no usable price data", "NO_DATA")

	default:
		respondErrorWithCode(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
