package ports

import (
	"context"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
)

// SnapshotRepository persists per-exchange price observations.
type SnapshotRepository interface {
	// InsertBatch stores multiple snapshots atomically
	InsertBatch(ctx context.Context, snapshots []*domain.QuoteSnapshot) error

	// LatestBySymbol returns the most recent snapshots for a symbol,
	// newest first
	LatestBySymbol(ctx context.Context, symbol string, limit int) ([]domain.QuoteSnapshot, error)

	// Count returns the total number of stored snapshots
	Count(ctx context.Context) (int64, error)

	// Prune removes snapshots older than the given time and returns the
	// number deleted
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
