// Package sentiment holds the per-symbol sentiment cache and the background
// refresher that keeps it warm from the news feed and the external scorer.
package sentiment

import (
	"sync"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// Cache holds the latest sentiment score per symbol. Reads never block on
// network calls; a refresh publishes a fully-formed replacement value under
// the write lock, so readers never observe a half-written score. Entries past
// their TTL are served with stale=true instead of decaying to a fabricated
// neutral value.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]domain.SentimentScore
	ttl     time.Duration

	now func() time.Time
}

// NewCache creates an empty cache with the given freshness window.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]domain.SentimentScore),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached score for symbol. ok is false when the symbol has
// never been scored; stale is true when the score is past its TTL.
func (c *Cache) Get(symbol string) (score domain.SentimentScore, stale, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	score, ok = c.entries[symbol]
	if !ok {
		return domain.SentimentScore{}, false, false
	}
	return score, score.StaleAt(c.now(), c.ttl), true
}

// Put atomically replaces the entry for score.Symbol.
func (c *Cache) Put(score domain.SentimentScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[score.Symbol] = score
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
