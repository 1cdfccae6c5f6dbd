// Package stream maintains per-symbol polling loops that broadcast
// ticker updates to subscribed client connections.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// Manager owns the symbol -> subscriber relation. A symbol is Active
// while it has at least one subscriber: exactly one polling goroutine
// runs per active symbol, started by the first subscribe and cancelled
// (not flag-checked) by the last unsubscribe or disconnect.
type Manager struct {
	source   ports.TickerSource
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	subs  map[string]map[string]ports.StreamSink // symbol -> connID -> sink
	conns map[string]map[string]struct{}         // connID -> symbols
	loops map[string]context.CancelFunc
	done  chan struct{}
}

// NewManager creates a stream manager polling source at the given
// cadence.
func NewManager(source ports.TickerSource, interval time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		source:   source,
		interval: interval,
		logger:   logger.With("component", "stream_manager", "interval", interval.String()),
		subs:     make(map[string]map[string]ports.StreamSink),
		conns:    make(map[string]map[string]struct{}),
		loops:    make(map[string]context.CancelFunc),
		done:     make(chan struct{}),
	}
}

// Subscribe registers sink for the given symbols under connID and
// returns the connection's full subscription set. Symbols without a
// running loop get one started.
func (m *Manager) Subscribe(connID string, sink ports.StreamSink, symbols []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conns[connID] == nil {
		m.conns[connID] = make(map[string]struct{})
	}

	for _, symbol := range symbols {
		m.conns[connID][symbol] = struct{}{}

		if m.subs[symbol] == nil {
			m.subs[symbol] = make(map[string]ports.StreamSink)
		}
		m.subs[symbol][connID] = sink

		if _, running := m.loops[symbol]; !running {
			m.startLoopLocked(symbol)
		}
	}

	return m.connSymbolsLocked(connID)
}

// Unsubscribe removes symbols from connID's subscriptions and returns
// the remaining set. Symbols left without subscribers have their loop
// cancelled immediately.
func (m *Manager) Unsubscribe(connID string, symbols []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, symbol := range symbols {
		m.removeLocked(connID, symbol)
	}
	return m.connSymbolsLocked(connID)
}

// Disconnect removes connID from every symbol it was subscribed to.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for symbol := range m.conns[connID] {
		m.removeLocked(connID, symbol)
	}
	delete(m.conns, connID)
}

// Stats reports the active symbols and connections.
func (m *Manager) Stats() domain.StreamStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := domain.StreamStats{
		TotalSymbols:     len(m.subs),
		TotalConnections: len(m.conns),
		BySymbol:         make(map[string]int, len(m.subs)),
	}
	for symbol, sinks := range m.subs {
		stats.BySymbol[symbol] = len(sinks)
	}
	return stats
}

// Shutdown cancels every polling loop. Subscriber state is left in
// place; the process is going away.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
	}
	close(m.done)

	for symbol, cancel := range m.loops {
		cancel()
		delete(m.loops, symbol)
	}
}

// startLoopLocked starts the polling goroutine for symbol. Caller holds
// the lock.
func (m *Manager) startLoopLocked(symbol string) {
	ctx, cancel := context.WithCancel(context.Background())
	m.loops[symbol] = cancel
	m.logger.Info("stream loop started", "symbol", symbol)

	go m.runLoop(ctx, symbol)
}

// removeLocked detaches connID from symbol and cancels the loop when
// the last subscriber leaves. Caller holds the lock.
func (m *Manager) removeLocked(connID, symbol string) {
	if sinks, ok := m.subs[symbol]; ok {
		delete(sinks, connID)
		if len(sinks) == 0 {
			delete(m.subs, symbol)
			if cancel, running := m.loops[symbol]; running {
				cancel()
				delete(m.loops, symbol)
				m.logger.Info("stream loop stopped", "symbol", symbol)
			}
		}
	}
	if symbols, ok := m.conns[connID]; ok {
		delete(symbols, symbol)
	}
}

func (m *Manager) connSymbolsLocked(connID string) []string {
	out := make([]string, 0, len(m.conns[connID]))
	for symbol := range m.conns[connID] {
		out = append(out, symbol)
	}
	return out
}

func (m *Manager) runLoop(ctx context.Context, symbol string) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// First update goes out immediately, not one interval later
	m.pollAndBroadcast(ctx, symbol)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.pollAndBroadcast(ctx, symbol)
		}
	}
}

func (m *Manager) pollAndBroadcast(ctx context.Context, symbol string) {
	t, err := m.source.FetchTicker(ctx, symbol)

	var frame any
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Debug("stream poll failed", "symbol", symbol, "error", err)
		frame = NewErrorFrame(symbol, "no ticker data available")
	} else {
		frame = NewPriceUpdateFrame(t)
	}

	m.broadcast(symbol, frame)
}

// broadcast sends frame to a snapshot of the symbol's subscribers,
// collecting failed connections and pruning them only after the pass
// completes.
func (m *Manager) broadcast(symbol string, frame any) {
	m.mu.Lock()
	snapshot := make(map[string]ports.StreamSink, len(m.subs[symbol]))
	for connID, sink := range m.subs[symbol] {
		snapshot[connID] = sink
	}
	m.mu.Unlock()

	var failed []string
	for connID, sink := range snapshot {
		if err := sink.SendJSON(frame); err != nil {
			m.logger.Debug("broadcast send failed",
				"symbol", symbol,
				"conn_id", connID,
				"error", err,
			)
			failed = append(failed, connID)
		}
	}

	if len(failed) == 0 {
		return
	}

	m.mu.Lock()
	for _, connID := range failed {
		m.removeLocked(connID, symbol)
	}
	m.mu.Unlock()
}

var _ ports.StreamManager = (*Manager)(nil)
