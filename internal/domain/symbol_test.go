package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"btcusdt", "BTCUSDT"},
		{"BTC-USDT", "BTCUSDT"},
		{"btc_usdt", "BTCUSDT"},
		{"BTC/USDT", "BTCUSDT"},
		{"  ethusdt  ", "ETHUSDT"},
		{"BTCUSDT", "BTCUSDT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.NormalizeSymbol(tt.input))
		})
	}
}

func TestValidateSymbolName(t *testing.T) {
	t.Run("accepts canonical symbols", func(t *testing.T) {
		for _, name := range []string{"BTCUSDT", "ETHBTC", "1INCHUSDT", "SOLFDUSD"} {
			assert.NoError(t, domain.ValidateSymbolName(name), name)
		}
	})

	t.Run("rejects invalid symbols", func(t *testing.T) {
		for _, name := range []string{"", "BTC", "btcusdt", "BTC-USDT", "BTC USDT", "VERYLONGSYMBOLNAMETHATGOESON"} {
			assert.ErrorIs(t, domain.ValidateSymbolName(name), domain.ErrInvalidSymbol, name)
		}
	})
}

func TestSplitSymbol(t *testing.T) {
	t.Run("splits known quote assets", func(t *testing.T) {
		base, quote, ok := domain.SplitSymbol("BTCUSDT")
		assert.True(t, ok)
		assert.Equal(t, "BTC", base)
		assert.Equal(t, "USDT", quote)

		base, quote, ok = domain.SplitSymbol("ETHBTC")
		assert.True(t, ok)
		assert.Equal(t, "ETH", base)
		assert.Equal(t, "BTC", quote)
	})

	t.Run("prefers longer quote match", func(t *testing.T) {
		base, quote, ok := domain.SplitSymbol("SOLFDUSD")
		assert.True(t, ok)
		assert.Equal(t, "SOL", base)
		assert.Equal(t, "FDUSD", quote)
	})

	t.Run("fails on unknown quote", func(t *testing.T) {
		_, _, ok := domain.SplitSymbol("BTCXYZ")
		assert.False(t, ok)
	})

	t.Run("fails when symbol is only a quote asset", func(t *testing.T) {
		_, _, ok := domain.SplitSymbol("USDT")
		assert.False(t, ok)
	})
}
