package ports

import "context"

// SymbolCache is a long-lived symbol-list cache with no TTL; entries are
// replaced only by explicit refresh.
type SymbolCache interface {
	// Get returns the cached symbol list for key, or domain.ErrCacheMiss
	Get(ctx context.Context, key string) ([]string, error)

	// Set stores the symbol list under key
	Set(ctx context.Context, key string, symbols []string) error
}
