package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/domain"
	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// SnapshotRepository stores per-exchange quote snapshots.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a PostgreSQL snapshot repository.
func NewSnapshotRepository(db *DB) ports.SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// InsertBatch stores multiple snapshots atomically.
func (r *SnapshotRepository) InsertBatch(ctx context.Context, snapshots []*domain.QuoteSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO quote_snapshots (symbol, exchange, price, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for _, s := range snapshots {
		err := tx.QueryRow(ctx, query,
			s.Symbol,
			s.Exchange,
			s.Price,
			s.RecordedAt,
		).Scan(&s.ID)

		if err != nil {
			return fmt.Errorf("failed to insert snapshot for %s@%s: %w", s.Symbol, s.Exchange, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestBySymbol returns the most recent snapshots for a symbol,
// newest first.
func (r *SnapshotRepository) LatestBySymbol(ctx context.Context, symbol string, limit int) ([]domain.QuoteSnapshot, error) {
	query := `
		SELECT id, symbol, exchange, price, recorded_at
		FROM quote_snapshots
		WHERE symbol = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.QuoteSnapshot
	for rows.Next() {
		var s domain.QuoteSnapshot
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Exchange, &s.Price, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	return snapshots, nil
}

// Count returns the total number of stored snapshots.
func (r *SnapshotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_snapshots`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Prune removes snapshots older than the given time.
func (r *SnapshotRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM quote_snapshots WHERE recorded_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
