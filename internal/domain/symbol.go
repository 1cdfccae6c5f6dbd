package domain

import (
	"strings"
	"unicode"
)

// quoteAssets are the quote currencies recognized when splitting a
// canonical symbol into base/quote, longest match first.
var quoteAssets = []string{
	"USDT", "USDC", "FDUSD", "BUSD", "TUSD", "DAI",
	"BTC", "ETH", "BNB", "EUR", "TRY", "USD",
}

// NormalizeSymbol converts user input into the canonical symbol form:
// uppercase, no whitespace, no separators (e.g. "btc-usdt" -> "BTCUSDT").
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)
}

// ValidateSymbolName validates a canonical symbol name.
// Names must be uppercase alphanumeric, between 5 and 20 characters.
func ValidateSymbolName(name string) error {
	if len(name) < 5 || len(name) > 20 {
		return ErrInvalidSymbol
	}

	for _, r := range name {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return ErrInvalidSymbol
		}
	}

	return nil
}

// SplitSymbol splits a canonical symbol into base and quote assets by
// matching a known quote suffix. Returns false when no quote matches.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	for _, q := range quoteAssets {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return symbol[:len(symbol)-len(q)], q, true
		}
	}
	return "", "", false
}
