package domain

import "time"

// Bar is one OHLCV candle from the broker's market data API.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Quote is the latest observed price for a symbol.
type Quote struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}
