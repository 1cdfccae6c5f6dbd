package domain

import "errors"

var (
	// Validation errors, rejected before any network work begins
	ErrInvalidSymbol   = errors.New("invalid symbol format")
	ErrEmptySymbols    = errors.New("symbols list is required")
	ErrTooManySymbols  = errors.New("too many symbols requested")
	ErrInvalidInterval = errors.New("unsupported kline interval")

	// Exchange errors
	ErrExchangeUnavailable = errors.New("exchange unavailable")
	ErrRateLimited         = errors.New("rate limited by exchange")
	ErrExchangeTimeout     = errors.New("exchange request timed out")
	ErrInvalidResponse     = errors.New("invalid response from exchange")
	ErrUnknownExchange     = errors.New("unknown exchange")
	ErrSymbolNotListed     = errors.New("symbol not listed on exchange")

	// Aggregation errors
	ErrNoData = errors.New("no usable price data")

	// Cache errors
	ErrCacheMiss = errors.New("cache miss")

	// History errors
	ErrHistoryDisabled  = errors.New("price history is disabled")
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// General errors
	ErrInternal = errors.New("internal server error")
)

// UnavailableReason maps an adapter error to the structured reason
// recorded in a price book entry.
func UnavailableReason(err error) string {
	switch {
	case errors.Is(err, ErrExchangeTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrSymbolNotListed):
		return "not_listed"
	default:
		return "unavailable"
	}
}
