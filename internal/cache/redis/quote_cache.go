package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// quoteTTL bounds how long a cached quote is served. The scheduler loops
// refresh quotes every cycle; anything older than this is gone for a reason.
const quoteTTL = time.Hour

// QuoteCache implements domain.QuoteCache using Redis hashes. Each symbol's
// latest price lives at "quote:{symbol}" with fields "price" and "ts" (Unix
// nanoseconds).
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

// SetQuote stores the latest observed price for a symbol.
func (qc *QuoteCache) SetQuote(ctx context.Context, symbol string, price float64, ts time.Time) error {
	key := quoteKey(symbol)
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", symbol, err)
	}
	return nil
}

// GetQuote retrieves the latest price and its observation time for a symbol.
// It returns domain.ErrNotFound when no quote is cached.
func (qc *QuoteCache) GetQuote(ctx context.Context, symbol string) (float64, time.Time, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(symbol)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get quote %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse quote price %s: %w", symbol, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse quote ts %s: %w", symbol, err)
	}
	return price, time.Unix(0, tsNano), nil
}

// GetQuotes retrieves prices for multiple symbols in one pipeline. Symbols
// without a cached quote are omitted from the result map.
func (qc *QuoteCache) GetQuotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	pipe := qc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(symbols))
	for _, sym := range symbols {
		cmds[sym] = pipe.HGetAll(ctx, quoteKey(sym))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes pipeline: %w", err)
	}

	result := make(map[string]float64, len(symbols))
	for sym, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(vals["price"], 64)
		if err != nil {
			continue
		}
		result[sym] = price
	}
	return result, nil
}

var _ domain.QuoteCache = (*QuoteCache)(nil)
