package domain

import "time"

// Position is one open holding in the position book. Quantity is always
// positive while the position is open; the book removes the entry when a sell
// brings quantity to zero. EntryPrice is the volume-weighted cost basis across
// all buy fills.
type Position struct {
	Symbol       string
	Class        AssetClass
	Qty          float64
	EntryPrice   float64
	CurrentPrice float64
	OpenedAt     time.Time
	UpdatedAt    time.Time
}

// MarketValue returns the position value at the last marked price.
func (p Position) MarketValue() float64 {
	return p.Qty * p.CurrentPrice
}

// UnrealizedPnL returns the open profit or loss at the last marked price.
func (p Position) UnrealizedPnL() float64 {
	return (p.CurrentPrice - p.EntryPrice) * p.Qty
}

// UnrealizedPnLPct returns the open profit or loss as a fraction of cost.
func (p Position) UnrealizedPnLPct() float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (p.CurrentPrice - p.EntryPrice) / p.EntryPrice
}
