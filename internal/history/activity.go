package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// ActivityLog is the bounded event trail shown on the dashboard. Every engine
// component records through it; entries fan out to the bus and the optional
// store on a best-effort basis.
type ActivityLog struct {
	ring   *ring[domain.ActivityEntry]
	bus    domain.SignalBus
	store  domain.ActivityStore
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityLog creates an activity log holding the most recent capacity
// entries. bus and store may be nil.
func NewActivityLog(capacity int, logger *slog.Logger) *ActivityLog {
	return &ActivityLog{
		ring:   newRing[domain.ActivityEntry](capacity),
		logger: logger.With(slog.String("component", "activity_log")),
		now:    time.Now,
	}
}

// SetBus enables live fan-out of activity entries.
func (a *ActivityLog) SetBus(bus domain.SignalBus) { a.bus = bus }

// SetStore enables durable activity persistence.
func (a *ActivityLog) SetStore(store domain.ActivityStore) { a.store = store }

// Record appends a new entry. symbol may be empty for system-wide events.
func (a *ActivityLog) Record(level domain.ActivityLevel, category, message, symbol string) {
	entry := domain.ActivityEntry{
		ID:        uuid.New().String(),
		Timestamp: a.now().UTC(),
		Level:     level,
		Category:  category,
		Message:   message,
		Symbol:    symbol,
	}
	a.ring.append(entry)

	// Fan-out never blocks or fails the recording itself.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if a.bus != nil {
		if payload, err := json.Marshal(entry); err == nil {
			if err := a.bus.Publish(ctx, domain.ChannelActivity, payload); err != nil {
				a.logger.Warn("activity publish failed", slog.String("error", err.Error()))
			}
		}
	}
	if a.store != nil {
		if err := a.store.Insert(ctx, entry); err != nil {
			a.logger.Warn("activity persistence failed", slog.String("error", err.Error()))
		}
	}
}

// List returns up to limit entries, newest first.
func (a *ActivityLog) List(limit int) []domain.ActivityEntry {
	return a.ring.listNewest(limit)
}

// Len returns the number of retained entries.
func (a *ActivityLog) Len() int { return a.ring.len() }
