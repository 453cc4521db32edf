package book

import "sync"

// Ledger tracks the cash balance alongside the position book. Fills debit and
// credit it so portfolio snapshots and paper-trading buying power stay
// consistent without a broker round trip.
type Ledger struct {
	mu   sync.Mutex
	cash float64
}

// NewLedger creates a ledger with the given starting cash.
func NewLedger(initial float64) *Ledger {
	return &Ledger{cash: initial}
}

// Debit subtracts amount from the balance. The balance may go negative when a
// live broker reports more buying power than the local ledger; callers size
// against buying power, not against this value.
func (l *Ledger) Debit(amount float64) {
	l.mu.Lock()
	l.cash -= amount
	l.mu.Unlock()
}

// Credit adds amount to the balance.
func (l *Ledger) Credit(amount float64) {
	l.mu.Lock()
	l.cash += amount
	l.mu.Unlock()
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}
