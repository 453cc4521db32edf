package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// Snapshotter records a portfolio valuation on a fixed interval. Cash comes
// from the live broker account when available and falls back to the local
// ledger; positions are valued at their last marked prices.
type Snapshotter struct {
	book      *book.Book
	ledger    *book.Ledger
	broker    domain.Broker
	portfolio *PortfolioLog
	bus       domain.SignalBus
	store     domain.SnapshotStore
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewSnapshotter wires a Snapshotter. bus and store may be nil.
func NewSnapshotter(
	bk *book.Book,
	ledger *book.Ledger,
	broker domain.Broker,
	portfolio *PortfolioLog,
	interval time.Duration,
	logger *slog.Logger,
) *Snapshotter {
	return &Snapshotter{
		book:      bk,
		ledger:    ledger,
		broker:    broker,
		portfolio: portfolio,
		interval:  interval,
		logger:    logger.With(slog.String("component", "snapshotter")),
		now:       time.Now,
	}
}

// SetBus enables live fan-out of snapshots.
func (s *Snapshotter) SetBus(bus domain.SignalBus) { s.bus = bus }

// SetStore enables durable snapshot persistence.
func (s *Snapshotter) SetStore(store domain.SnapshotStore) { s.store = store }

// Run takes a snapshot immediately and then on every interval until the
// context is cancelled.
func (s *Snapshotter) Run(ctx context.Context) error {
	s.logger.Info("snapshotter started", slog.Duration("interval", s.interval))
	defer s.logger.Info("snapshotter stopped")

	s.Snapshot(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Snapshot(ctx)
		}
	}
}

// Snapshot records one valuation and returns it.
func (s *Snapshotter) Snapshot(ctx context.Context) domain.PortfolioSnapshot {
	snap := domain.NewPortfolioSnapshot(s.now().UTC(), s.cash(ctx), s.book.Value())
	s.portfolio.Append(snap)

	if s.bus != nil {
		if payload, err := json.Marshal(snap); err == nil {
			if err := s.bus.Publish(ctx, domain.ChannelPortfolio, payload); err != nil {
				s.logger.Warn("snapshot publish failed", slog.String("error", err.Error()))
			}
		}
	}
	if s.store != nil {
		if err := s.store.Insert(ctx, snap); err != nil {
			s.logger.Warn("snapshot persistence failed", slog.String("error", err.Error()))
		}
	}
	return snap
}

func (s *Snapshotter) cash(ctx context.Context) float64 {
	acct, err := s.broker.Account(ctx)
	if err != nil {
		if !domain.IsDataUnavailable(err) {
			s.logger.Warn("account lookup failed, using local ledger", slog.String("error", err.Error()))
		}
		return s.ledger.Balance()
	}
	return acct.Cash
}
