package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// ActivityStore implements domain.ActivityStore using PostgreSQL.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore creates an ActivityStore backed by the given connection pool.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Insert stores one activity entry.
func (s *ActivityStore) Insert(ctx context.Context, entry domain.ActivityEntry) error {
	const query = `
		INSERT INTO activity_log (id, recorded_at, level, category, message, symbol)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query,
		entry.ID, entry.Timestamp, entry.Level, entry.Category, entry.Message, entry.Symbol,
	); err != nil {
		return fmt.Errorf("postgres: insert activity %s: %w", entry.ID, err)
	}
	return nil
}

// List returns activity entries newest first, filtered and paginated by opts.
func (s *ActivityStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ActivityEntry, error) {
	query, args := buildListQuery(
		"SELECT id, recorded_at, level, category, message, symbol FROM activity_log",
		"recorded_at", opts,
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list activity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Category, &e.Message, &e.Symbol); err != nil {
			return nil, fmt.Errorf("postgres: scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list activity: %w", err)
	}
	return entries, nil
}

var _ domain.ActivityStore = (*ActivityStore)(nil)
