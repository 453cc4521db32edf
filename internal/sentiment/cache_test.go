package sentiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheGetMissing(t *testing.T) {
	c := NewCache(time.Minute)

	_, stale, ok := c.Get("AAPL")
	assert.False(t, ok)
	assert.False(t, stale)
}

func TestCachePutGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(domain.SentimentScore{
		Symbol:        "AAPL",
		Score:         0.4,
		Confidence:    0.9,
		HeadlineCount: 12,
		SampledAt:     time.Now().UTC(),
	})

	score, stale, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.False(t, stale)
	assert.Equal(t, 0.4, score.Score)
	assert.Equal(t, 12, score.HeadlineCount)
}

func TestCacheStaleAfterTTL(t *testing.T) {
	c := NewCache(time.Minute)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Put(domain.SentimentScore{Symbol: "BTC/USD", Score: -0.2, SampledAt: base})

	_, stale, ok := c.Get("BTC/USD")
	require.True(t, ok)
	assert.False(t, stale)

	// Past the TTL the value is retained but flagged, never zeroed.
	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	score, stale, ok := c.Get("BTC/USD")
	require.True(t, ok)
	assert.True(t, stale)
	assert.Equal(t, -0.2, score.Score)
}

func TestCachePutReplacesWholeEntry(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(domain.SentimentScore{Symbol: "TSLA", Score: 0.1, HeadlineCount: 3, SampledAt: time.Now()})
	c.Put(domain.SentimentScore{Symbol: "TSLA", Score: -0.3, HeadlineCount: 7, SampledAt: time.Now()})

	score, _, ok := c.Get("TSLA")
	require.True(t, ok)
	assert.Equal(t, -0.3, score.Score)
	assert.Equal(t, 7, score.HeadlineCount)
}

func TestCacheConcurrentReadersAndWriters(t *testing.T) {
	c := NewCache(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put(domain.SentimentScore{Symbol: "AAPL", Score: 0.5, SampledAt: time.Now()})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Get("AAPL")
			}
		}()
	}
	wg.Wait()

	_, _, ok := c.Get("AAPL")
	assert.True(t, ok)
}

// ---------------------------------------------------------------------------
// Refresher
// ---------------------------------------------------------------------------

type fakeFeed struct {
	headlines []domain.Headline
	err       error
}

func (f *fakeFeed) Headlines(ctx context.Context, symbol string, limit int) ([]domain.Headline, error) {
	return f.headlines, f.err
}

type fakeScorer struct {
	scored []domain.ScoredText
	err    error
}

func (f *fakeScorer) ScoreBatch(ctx context.Context, texts []string) ([]domain.ScoredText, error) {
	return f.scored, f.err
}

type recordedEvent struct {
	level    domain.ActivityLevel
	category string
	symbol   string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) Record(level domain.ActivityLevel, category, message, symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{level: level, category: category, symbol: symbol})
}

func newTestRefresher(cache *Cache, feed domain.NewsFeed, scorer domain.SentimentScorer, rec *fakeRecorder) *Refresher {
	return NewRefresher(cache, feed, scorer, NewWatchlist([]string{"AAPL"}), rec,
		time.Minute, 25, discardLogger())
}

func TestRefreshSymbolAveragesScores(t *testing.T) {
	cache := NewCache(time.Minute)
	feed := &fakeFeed{headlines: []domain.Headline{
		{Symbol: "AAPL", Title: "a"},
		{Symbol: "AAPL", Title: "b"},
	}}
	scorer := &fakeScorer{scored: []domain.ScoredText{
		{Text: "a", Score: 0.6, Confidence: 0.8},
		{Text: "b", Score: 0.2, Confidence: 0.6},
	}}

	r := newTestRefresher(cache, feed, scorer, &fakeRecorder{})
	require.NoError(t, r.RefreshSymbol(context.Background(), "AAPL"))

	score, stale, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.False(t, stale)
	assert.InDelta(t, 0.4, score.Score, 1e-9)
	assert.InDelta(t, 0.7, score.Confidence, 1e-9)
	assert.Equal(t, 2, score.HeadlineCount)
}

func TestRefreshSymbolEmptyFeedIsNeutral(t *testing.T) {
	cache := NewCache(time.Minute)
	r := newTestRefresher(cache, &fakeFeed{}, &fakeScorer{}, &fakeRecorder{})

	require.NoError(t, r.RefreshSymbol(context.Background(), "AAPL"))

	score, _, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.Zero(t, score.Score)
	assert.Zero(t, score.HeadlineCount)
}

func TestRefreshFailureKeepsPriorValueAndRecordsDegradation(t *testing.T) {
	cache := NewCache(time.Minute)
	prior := domain.SentimentScore{Symbol: "AAPL", Score: 0.3, SampledAt: time.Now().UTC()}
	cache.Put(prior)

	rec := &fakeRecorder{}
	feed := &fakeFeed{err: domain.ErrDataUnavailable}
	r := newTestRefresher(cache, feed, &fakeScorer{}, rec)

	r.refreshAll(context.Background())

	score, _, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 0.3, score.Score, "failed refresh must not evict the prior score")

	require.Len(t, rec.events, 1)
	assert.Equal(t, domain.ActivityWarning, rec.events[0].level)
	assert.Equal(t, "Sentiment", rec.events[0].category)
	assert.Equal(t, "AAPL", rec.events[0].symbol)
}

func TestRefreshScorerErrorIsIsolated(t *testing.T) {
	cache := NewCache(time.Minute)
	feed := &fakeFeed{headlines: []domain.Headline{{Symbol: "AAPL", Title: "a"}}}
	scorer := &fakeScorer{err: errors.New("connection refused")}

	r := newTestRefresher(cache, feed, scorer, &fakeRecorder{})
	err := r.RefreshSymbol(context.Background(), "AAPL")
	require.Error(t, err)

	_, _, ok := cache.Get("AAPL")
	assert.False(t, ok, "a failed first refresh must not fabricate a neutral entry")
}

func TestWatchlistReplaceAndNormalize(t *testing.T) {
	w := NewWatchlist([]string{"aapl", " GOOGL ", "AAPL", ""})
	assert.Equal(t, []string{"AAPL", "GOOGL"}, w.Symbols())

	w.Replace([]string{"btc/usd"})
	assert.Equal(t, []string{"BTC/USD"}, w.Symbols())
}
