package history

import "github.com/tallmansamadam/ladybug-trading/internal/domain"

// TradeLog is the bounded trail of recent fills.
type TradeLog struct {
	ring *ring[domain.TradeRecord]
}

// NewTradeLog creates a trade log holding the most recent capacity fills.
func NewTradeLog(capacity int) *TradeLog {
	return &TradeLog{ring: newRing[domain.TradeRecord](capacity)}
}

// Append records a fill.
func (t *TradeLog) Append(rec domain.TradeRecord) { t.ring.append(rec) }

// List returns up to limit fills, newest first.
func (t *TradeLog) List(limit int) []domain.TradeRecord {
	return t.ring.listNewest(limit)
}

// All returns every retained fill, oldest first.
func (t *TradeLog) All() []domain.TradeRecord { return t.ring.list() }

// Len returns the number of retained fills.
func (t *TradeLog) Len() int { return t.ring.len() }
