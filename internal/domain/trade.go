package domain

import "time"

// TradeRecord is an immutable fill record. RealizedPnL is populated only for
// sell fills: (fill price - entry price) x quantity closed.
type TradeRecord struct {
	ID          string
	Symbol      string
	Class       AssetClass
	Action      OrderSide
	Quantity    float64
	Price       float64
	RealizedPnL float64
	Timestamp   time.Time
}
