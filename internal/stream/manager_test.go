package stream_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/stream"
)

// fakeSource answers every fetch with a fixed price, or an error.
type fakeSource struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeSource) FetchTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Ticker{
		Symbol:    symbol,
		Price:     decimal.NewFromInt(50000),
		Exchange:  "binance",
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingSink captures every frame it receives.
type recordingSink struct {
	mu     sync.Mutex
	frames []any
	err    error
}

func (r *recordingSink) SendJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, v)
	return nil
}

func (r *recordingSink) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordingSink) lastFrame() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestManager_Subscribe(t *testing.T) {
	t.Run("first subscriber starts a loop and receives updates", func(t *testing.T) {
		source := &fakeSource{}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		sink := &recordingSink{}
		symbols := m.Subscribe("conn-1", sink, []string{"BTCUSDT"})
		assert.Equal(t, []string{"BTCUSDT"}, symbols)

		require.Eventually(t, func() bool {
			return sink.frameCount() >= 2
		}, time.Second, 5*time.Millisecond)

		frame, ok := sink.lastFrame().(stream.PriceUpdateFrame)
		require.True(t, ok)
		assert.Equal(t, stream.FramePriceUpdate, frame.Type)
		assert.Equal(t, "BTCUSDT", frame.Symbol)
		assert.Equal(t, "50000", frame.Price)
		assert.Equal(t, "binance", frame.Exchange)
	})

	t.Run("one loop serves every subscriber of a symbol", func(t *testing.T) {
		source := &fakeSource{}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		first := &recordingSink{}
		second := &recordingSink{}
		m.Subscribe("conn-1", first, []string{"BTCUSDT"})
		m.Subscribe("conn-2", second, []string{"BTCUSDT"})

		require.Eventually(t, func() bool {
			return first.frameCount() >= 1 && second.frameCount() >= 1
		}, time.Second, 5*time.Millisecond)

		stats := m.Stats()
		assert.Equal(t, 1, stats.TotalSymbols)
		assert.Equal(t, 2, stats.TotalConnections)
		assert.Equal(t, 2, stats.BySymbol["BTCUSDT"])
	})

	t.Run("fetch failures produce error frames", func(t *testing.T) {
		source := &fakeSource{err: errors.New("all exchanges down")}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		sink := &recordingSink{}
		m.Subscribe("conn-1", sink, []string{"BTCUSDT"})

		require.Eventually(t, func() bool {
			return sink.frameCount() >= 1
		}, time.Second, 5*time.Millisecond)

		frame, ok := sink.lastFrame().(stream.ErrorFrame)
		require.True(t, ok)
		assert.Equal(t, stream.FrameError, frame.Type)
	})
}

func TestManager_Unsubscribe(t *testing.T) {
	t.Run("last unsubscribe stops the loop", func(t *testing.T) {
		source := &fakeSource{}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		sink := &recordingSink{}
		m.Subscribe("conn-1", sink, []string{"BTCUSDT"})

		require.Eventually(t, func() bool {
			return sink.frameCount() >= 1
		}, time.Second, 5*time.Millisecond)

		remaining := m.Unsubscribe("conn-1", []string{"BTCUSDT"})
		assert.Empty(t, remaining)

		stats := m.Stats()
		assert.Equal(t, 0, stats.TotalSymbols)

		// loop is cancelled: polling stops
		time.Sleep(30 * time.Millisecond)
		calls := source.callCount()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, calls, source.callCount())
	})

	t.Run("partial unsubscribe keeps the other symbols", func(t *testing.T) {
		source := &fakeSource{}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		sink := &recordingSink{}
		m.Subscribe("conn-1", sink, []string{"BTCUSDT", "ETHUSDT"})

		remaining := m.Unsubscribe("conn-1", []string{"BTCUSDT"})
		assert.Equal(t, []string{"ETHUSDT"}, remaining)

		stats := m.Stats()
		assert.Equal(t, 1, stats.TotalSymbols)
		assert.Equal(t, 1, stats.BySymbol["ETHUSDT"])
	})
}

func TestManager_Disconnect(t *testing.T) {
	t.Run("removes the connection from every symbol", func(t *testing.T) {
		source := &fakeSource{}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		stay := &recordingSink{}
		leave := &recordingSink{}
		m.Subscribe("conn-stay", stay, []string{"BTCUSDT"})
		m.Subscribe("conn-leave", leave, []string{"BTCUSDT", "ETHUSDT"})

		m.Disconnect("conn-leave")

		stats := m.Stats()
		assert.Equal(t, 1, stats.TotalSymbols)
		assert.Equal(t, 1, stats.TotalConnections)
		assert.Equal(t, 1, stats.BySymbol["BTCUSDT"])
		assert.Zero(t, stats.BySymbol["ETHUSDT"])
	})
}

func TestManager_Broadcast(t *testing.T) {
	t.Run("failing sinks are pruned after the pass", func(t *testing.T) {
		source := &fakeSource{}
		m := stream.NewManager(source, 10*time.Millisecond, newTestLogger())
		defer m.Shutdown()

		healthy := &recordingSink{}
		broken := &recordingSink{err: errors.New("connection reset")}
		m.Subscribe("conn-healthy", healthy, []string{"BTCUSDT"})
		m.Subscribe("conn-broken", broken, []string{"BTCUSDT"})

		require.Eventually(t, func() bool {
			return m.Stats().BySymbol["BTCUSDT"] == 1
		}, time.Second, 5*time.Millisecond)

		require.Eventually(t, func() bool {
			return healthy.frameCount() >= 2
		}, time.Second, 5*time.Millisecond)
	})
}

func TestStreamStats_Merge(t *testing.T) {
	t.Run("symbols active in both managers count once", func(t *testing.T) {
		a := domain.StreamStats{
			TotalSymbols:     2,
			TotalConnections: 3,
			BySymbol:         map[string]int{"BTCUSDT": 2, "ETHUSDT": 1},
		}
		b := domain.StreamStats{
			TotalSymbols:     1,
			TotalConnections: 1,
			BySymbol:         map[string]int{"BTCUSDT": 1},
		}

		merged := a.Merge(b)
		assert.Equal(t, 2, merged.TotalSymbols)
		assert.Equal(t, 4, merged.TotalConnections)
		assert.Equal(t, 3, merged.BySymbol["BTCUSDT"])
		assert.Equal(t, 1, merged.BySymbol["ETHUSDT"])
	})
}
