package domain

import "time"

// SentimentScore is the cached per-symbol sentiment, aggregated from a batch
// of scored headlines. A score past its TTL is served stale rather than being
// replaced by a fabricated neutral value.
type SentimentScore struct {
	Symbol        string
	Score         float64 // [-1, 1]
	Confidence    float64
	HeadlineCount int
	SampledAt     time.Time
}

// StaleAt reports whether the score is older than ttl at the given instant.
func (s SentimentScore) StaleAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.SampledAt) > ttl
}

// Headline is one news item fetched for sentiment scoring.
type Headline struct {
	Symbol      string
	Title       string
	Source      string
	PublishedAt time.Time
}
