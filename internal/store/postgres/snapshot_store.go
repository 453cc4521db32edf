package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Insert stores one portfolio snapshot. A snapshot taken at an already
// recorded instant overwrites the previous values.
func (s *SnapshotStore) Insert(ctx context.Context, snap domain.PortfolioSnapshot) error {
	const query = `
		INSERT INTO portfolio_snapshots (taken_at, cash, positions_value, total_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (taken_at) DO UPDATE SET
			cash = EXCLUDED.cash,
			positions_value = EXCLUDED.positions_value,
			total_value = EXCLUDED.total_value`

	if _, err := s.pool.Exec(ctx, query,
		snap.Timestamp, snap.Cash, snap.PositionsValue, snap.TotalValue,
	); err != nil {
		return fmt.Errorf("postgres: insert snapshot: %w", err)
	}
	return nil
}

// List returns snapshots newest first, filtered and paginated by opts.
func (s *SnapshotStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.PortfolioSnapshot, error) {
	query, args := buildListQuery(
		"SELECT taken_at, cash, positions_value, total_value FROM portfolio_snapshots",
		"taken_at", opts,
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.PortfolioSnapshot
	for rows.Next() {
		var snap domain.PortfolioSnapshot
		if err := rows.Scan(&snap.Timestamp, &snap.Cash, &snap.PositionsValue, &snap.TotalValue); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots: %w", err)
	}
	return snaps, nil
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
