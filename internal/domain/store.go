package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeStore persists fill records durably. The in-memory history ring stays
// authoritative for the dashboard; the store is an optional durable mirror.
type TradeStore interface {
	Insert(ctx context.Context, trade TradeRecord) error
	List(ctx context.Context, opts ListOpts) ([]TradeRecord, error)
}

// SnapshotStore persists portfolio snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, snap PortfolioSnapshot) error
	List(ctx context.Context, opts ListOpts) ([]PortfolioSnapshot, error)
}

// ActivityStore persists the activity audit trail.
type ActivityStore interface {
	Insert(ctx context.Context, entry ActivityEntry) error
	List(ctx context.Context, opts ListOpts) ([]ActivityEntry, error)
}
