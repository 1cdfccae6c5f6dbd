package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/services"
)

func TestFailoverSource_FetchTicker(t *testing.T) {
	t.Run("returns the highest priority answer", func(t *testing.T) {
		binance := &scriptedAdapter{name: "binance", priority: 1, prices: map[string]float64{"BTCUSDT": 50000}}
		kucoin := &scriptedAdapter{name: "kucoin", priority: 2, prices: map[string]float64{"BTCUSDT": 50100}}

		src := services.NewFailoverSource(newTestRegistry(binance, kucoin), time.Second, newTestLogger())

		ticker, err := src.FetchTicker(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, "binance", ticker.Exchange)
		assert.Zero(t, kucoin.calls.Load())
	})

	t.Run("falls through to the next exchange on failure", func(t *testing.T) {
		binance := &scriptedAdapter{name: "binance", priority: 1, err: domain.ErrExchangeTimeout}
		kucoin := &scriptedAdapter{name: "kucoin", priority: 2, prices: map[string]float64{"BTCUSDT": 50100}}

		src := services.NewFailoverSource(newTestRegistry(binance, kucoin), time.Second, newTestLogger())

		ticker, err := src.FetchTicker(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, "kucoin", ticker.Exchange)
	})

	t.Run("tries unhealthy exchanges last", func(t *testing.T) {
		binance := &scriptedAdapter{name: "binance", priority: 1, prices: map[string]float64{"BTCUSDT": 50000}}
		kucoin := &scriptedAdapter{name: "kucoin", priority: 2, prices: map[string]float64{"BTCUSDT": 50100}}

		reg := newTestRegistry(binance, kucoin)
		for i := 0; i < 3; i++ {
			reg.RecordResult("binance", false, time.Millisecond, domain.ErrExchangeTimeout)
		}
		require.False(t, reg.IsHealthy("binance"))

		src := services.NewFailoverSource(reg, time.Second, newTestLogger())

		ticker, err := src.FetchTicker(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, "kucoin", ticker.Exchange)
		assert.Zero(t, binance.calls.Load())
	})

	t.Run("a success while unhealthy flips the exchange back", func(t *testing.T) {
		binance := &scriptedAdapter{name: "binance", priority: 1, prices: map[string]float64{"BTCUSDT": 50000}}

		reg := newTestRegistry(binance)
		for i := 0; i < 3; i++ {
			reg.RecordResult("binance", false, time.Millisecond, domain.ErrExchangeTimeout)
		}
		require.False(t, reg.IsHealthy("binance"))

		src := services.NewFailoverSource(reg, time.Second, newTestLogger())

		_, err := src.FetchTicker(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.True(t, reg.IsHealthy("binance"))
	})

	t.Run("reports no data when every exchange fails", func(t *testing.T) {
		binance := &scriptedAdapter{name: "binance", priority: 1, err: domain.ErrExchangeTimeout}
		kucoin := &scriptedAdapter{name: "kucoin", priority: 2, err: domain.ErrSymbolNotListed}

		src := services.NewFailoverSource(newTestRegistry(binance, kucoin), time.Second, newTestLogger())

		_, err := src.FetchTicker(context.Background(), "BTCUSDT")
		assert.ErrorIs(t, err, domain.ErrNoData)
	})
}
