package domain

import (
	"context"
	"time"
)

// QuoteCache provides fast access to the latest observed prices, shared
// between the scheduler loops, the profit booker, and the dashboard.
type QuoteCache interface {
	SetQuote(ctx context.Context, symbol string, price float64, ts time.Time) error
	GetQuote(ctx context.Context, symbol string) (float64, time.Time, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]float64, error)
}

// SignalBus provides pub/sub fan-out of engine events (activity, trades,
// portfolio snapshots) to the WebSocket hub and any other listener.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter answers whether a request identified by key is allowed under
// the given limit per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Bus channels.
const (
	ChannelTrades    = "ladybug:trades"
	ChannelActivity  = "ladybug:activity"
	ChannelPortfolio = "ladybug:portfolio"
	ChannelPositions = "ladybug:positions"
	ChannelStatus    = "ladybug:status"
)
