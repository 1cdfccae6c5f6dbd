// Package cache provides the symbol-list cache: Redis-backed when a
// client is configured, with an in-process fallback that keeps the
// service serving when Redis is down.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// SymbolCache stores symbol lists with no expiry. Entries are replaced
// only by explicit refresh. Every write also lands in the local map so
// reads survive a Redis outage.
type SymbolCache struct {
	client *redis.Client // nil means memory-only
	logger *slog.Logger

	mu    sync.RWMutex
	local map[string][]string
}

// NewSymbolCache creates a symbol cache. client may be nil for a
// memory-only cache.
func NewSymbolCache(client *redis.Client, logger *slog.Logger) *SymbolCache {
	return &SymbolCache{
		client: client,
		logger: logger.With("component", "symbol_cache"),
		local:  make(map[string][]string),
	}
}

// Get returns the cached symbol list for key, or domain.ErrCacheMiss.
// Redis errors fall back to the local copy.
func (c *SymbolCache) Get(ctx context.Context, key string) ([]string, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			var symbols []string
			if jsonErr := json.Unmarshal([]byte(raw), &symbols); jsonErr == nil {
				return symbols, nil
			}
			c.logger.Warn("corrupt cache entry, ignoring", "key", key)
		case err == redis.Nil:
			// fall through to the local map
		default:
			c.logger.Warn("redis read failed, using local fallback", "key", key, "error", err)
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if symbols, ok := c.local[key]; ok {
		return symbols, nil
	}
	return nil, domain.ErrCacheMiss
}

// Set stores the symbol list under key with no TTL.
func (c *SymbolCache) Set(ctx context.Context, key string, symbols []string) error {
	c.mu.Lock()
	c.local[key] = symbols
	c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	raw, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("failed to marshal symbols: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write symbol cache: %w", err)
	}
	return nil
}

var _ ports.SymbolCache = (*SymbolCache)(nil)
