package domain

import "time"

// PortfolioSnapshot is an immutable point-in-time valuation of the portfolio.
// TotalValue always equals Cash + PositionsValue; construct snapshots through
// NewPortfolioSnapshot so the invariant holds for every record.
type PortfolioSnapshot struct {
	Timestamp      time.Time
	Cash           float64
	PositionsValue float64
	TotalValue     float64
}

// NewPortfolioSnapshot builds a snapshot with the valuation invariant applied.
func NewPortfolioSnapshot(ts time.Time, cash, positionsValue float64) PortfolioSnapshot {
	return PortfolioSnapshot{
		Timestamp:      ts,
		Cash:           cash,
		PositionsValue: positionsValue,
		TotalValue:     cash + positionsValue,
	}
}

// Account is the broker account summary used for sizing and valuation.
type Account struct {
	Cash           float64
	BuyingPower    float64
	PortfolioValue float64
	Currency       string
}
