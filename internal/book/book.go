// Package book holds the authoritative in-memory ledger of open positions.
package book

import (
	"sync"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// Book is the sole owner of the open-position set. Mutations for a given
// symbol are serialized through a per-symbol lock so concurrent fills from
// the two scheduler loops cannot interleave and lose an update; unrelated
// symbols never contend on each other's writes. Reads copy the current state
// under a short read lock.
type Book struct {
	mu        sync.RWMutex
	locks     map[string]*sync.Mutex
	positions map[string]domain.Position
}

// New creates an empty position book.
func New() *Book {
	return &Book{
		locks:     make(map[string]*sync.Mutex),
		positions: make(map[string]domain.Position),
	}
}

// symbolLock returns the write-serialization lock for symbol, creating it on
// first use.
func (b *Book) symbolLock(symbol string) *sync.Mutex {
	b.mu.RLock()
	l, ok := b.locks[symbol]
	b.mu.RUnlock()
	if ok {
		return l
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.locks[symbol]; ok {
		return l
	}
	l = &sync.Mutex{}
	b.locks[symbol] = l
	return l
}

// ApplyBuy records a buy fill. The first fill for a symbol opens the
// position; further fills add to it and recompute the entry price as the
// quantity-weighted average of old and new cost. It returns the position
// after the fill.
func (b *Book) ApplyBuy(symbol string, class domain.AssetClass, qty, price float64, at time.Time) domain.Position {
	l := b.symbolLock(symbol)
	l.Lock()
	defer l.Unlock()

	b.mu.RLock()
	pos, ok := b.positions[symbol]
	b.mu.RUnlock()

	if !ok {
		pos = domain.Position{
			Symbol:       symbol,
			Class:        class,
			Qty:          qty,
			EntryPrice:   price,
			CurrentPrice: price,
			OpenedAt:     at,
			UpdatedAt:    at,
		}
	} else {
		totalCost := pos.EntryPrice*pos.Qty + price*qty
		pos.Qty += qty
		pos.EntryPrice = totalCost / pos.Qty
		pos.CurrentPrice = price
		pos.UpdatedAt = at
	}

	b.mu.Lock()
	b.positions[symbol] = pos
	b.mu.Unlock()
	return pos
}

// ApplySell records a sell fill against an open position and returns the
// realized profit or loss: (fill price - entry price) x quantity closed. A
// fill larger than the held quantity is clamped to it. The entry is removed
// when quantity reaches zero; partial closes keep the position with the
// reduced quantity.
func (b *Book) ApplySell(symbol string, qty, price float64, at time.Time) (realized float64, closed bool, err error) {
	l := b.symbolLock(symbol)
	l.Lock()
	defer l.Unlock()

	b.mu.RLock()
	pos, ok := b.positions[symbol]
	b.mu.RUnlock()
	if !ok {
		return 0, false, domain.ErrNotFound
	}

	if qty > pos.Qty {
		qty = pos.Qty
	}
	realized = (price - pos.EntryPrice) * qty
	pos.Qty -= qty
	pos.CurrentPrice = price
	pos.UpdatedAt = at

	b.mu.Lock()
	if pos.Qty <= 0 {
		delete(b.positions, symbol)
		closed = true
	} else {
		b.positions[symbol] = pos
	}
	b.mu.Unlock()
	return realized, closed, nil
}

// MarkPrice updates the derived current price for valuation. It is a no-op
// for symbols without an open position.
func (b *Book) MarkPrice(symbol string, price float64) {
	l := b.symbolLock(symbol)
	l.Lock()
	defer l.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.positions[symbol]
	if !ok {
		return
	}
	pos.CurrentPrice = price
	b.positions[symbol] = pos
}

// Get returns a copy of the position for symbol.
func (b *Book) Get(symbol string) (domain.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[symbol]
	return pos, ok
}

// Snapshot returns a consistent point-in-time copy of all open positions.
// Writers are only held up for the duration of the copy itself.
func (b *Book) Snapshot() []domain.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, pos)
	}
	return out
}

// SnapshotClass returns a copy of the open positions for one asset class.
func (b *Book) SnapshotClass(class domain.AssetClass) []domain.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		if pos.Class == class {
			out = append(out, pos)
		}
	}
	return out
}

// Value returns the summed market value of all open positions at their last
// marked prices.
func (b *Book) Value() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total float64
	for _, pos := range b.positions {
		total += pos.MarketValue()
	}
	return total
}

// Len returns the number of open positions.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}
