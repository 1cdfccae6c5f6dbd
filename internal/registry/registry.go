package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// Registry holds the fixed, priority-ordered set of exchange adapters
// and tracks their health. Health is updated opportunistically from real
// traffic; there is no background probing.
type Registry struct {
	adapters         []ports.ExchangeAdapter
	failureThreshold int
	logger           *slog.Logger

	mu     sync.RWMutex
	health map[string]*healthState
}

type healthState struct {
	status              domain.HealthStatus
	consecutiveFailures int
	lastChecked         time.Time
	lastLatency         time.Duration
	lastError           string
}

// New creates a registry over the given adapters. Adapters are ordered
// by priority ascending regardless of input order.
func New(adapters []ports.ExchangeAdapter, failureThreshold int, logger *slog.Logger) *Registry {
	ordered := make([]ports.ExchangeAdapter, len(adapters))
	copy(ordered, adapters)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	health := make(map[string]*healthState, len(ordered))
	for _, a := range ordered {
		health[a.Name()] = &healthState{status: domain.StatusHealthy}
	}

	return &Registry{
		adapters:         ordered,
		failureThreshold: failureThreshold,
		logger:           logger.With("component", "exchange_registry"),
		health:           health,
	}
}

// Adapters returns all adapters ordered by priority ascending.
func (r *Registry) Adapters() []ports.ExchangeAdapter {
	out := make([]ports.ExchangeAdapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// RecordResult updates an adapter's health after a call. An adapter
// turns unhealthy after failureThreshold consecutive failures and
// recovers on the first success.
func (r *Registry) RecordResult(name string, ok bool, latency time.Duration, callErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, found := r.health[name]
	if !found {
		return
	}

	h.lastChecked = time.Now().UTC()
	h.lastLatency = latency

	if ok {
		if h.status == domain.StatusUnhealthy {
			r.logger.Info("exchange recovered", "exchange", name)
		}
		h.status = domain.StatusHealthy
		h.consecutiveFailures = 0
		h.lastError = ""
		return
	}

	h.consecutiveFailures++
	if callErr != nil {
		h.lastError = callErr.Error()
	}
	if h.consecutiveFailures >= r.failureThreshold && h.status == domain.StatusHealthy {
		h.status = domain.StatusUnhealthy
		r.logger.Warn("exchange marked unhealthy",
			"exchange", name,
			"consecutive_failures", h.consecutiveFailures,
			"error", h.lastError,
		)
	}
}

// Health returns per-adapter health ordered by priority ascending.
func (r *Registry) Health() []domain.ExchangeHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ExchangeHealth, 0, len(r.adapters))
	for _, a := range r.adapters {
		h := r.health[a.Name()]
		out = append(out, domain.ExchangeHealth{
			Name:                a.Name(),
			Priority:            a.Priority(),
			Status:              h.status,
			ConsecutiveFailures: h.consecutiveFailures,
			LastChecked:         h.lastChecked,
			LastLatency:         h.lastLatency,
			LastError:           h.lastError,
		})
	}
	return out
}

// IsHealthy reports whether the named adapter is currently healthy.
func (r *Registry) IsHealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, found := r.health[name]
	return found && h.status == domain.StatusHealthy
}

var _ ports.ExchangeRegistry = (*Registry)(nil)
