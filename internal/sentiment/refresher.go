package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// ActivityRecorder receives degradation events and refresh outcomes for the
// dashboard activity log.
type ActivityRecorder interface {
	Record(level domain.ActivityLevel, category, message, symbol string)
}

// Refresher periodically rescores every watchlist symbol: it pulls a bounded
// set of recent headlines, batches them to the scorer, and publishes the
// averaged result to the cache. One symbol's failure never aborts the pass
// and never evicts that symbol's previous score.
type Refresher struct {
	cache        *Cache
	feed         domain.NewsFeed
	scorer       domain.SentimentScorer
	watchlist    *Watchlist
	activity     ActivityRecorder
	interval     time.Duration
	maxHeadlines int
	logger       *slog.Logger
}

// NewRefresher creates a Refresher over the given collaborators.
func NewRefresher(
	cache *Cache,
	feed domain.NewsFeed,
	scorer domain.SentimentScorer,
	watchlist *Watchlist,
	activity ActivityRecorder,
	interval time.Duration,
	maxHeadlines int,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		cache:        cache,
		feed:         feed,
		scorer:       scorer,
		watchlist:    watchlist,
		activity:     activity,
		interval:     interval,
		maxHeadlines: maxHeadlines,
		logger:       logger.With(slog.String("component", "sentiment")),
	}
}

// Run refreshes the watchlist immediately and then on every interval tick
// until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("sentiment refresher started",
		slog.Duration("interval", r.interval),
	)
	defer r.logger.Info("sentiment refresher stopped")

	r.refreshAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

// refreshAll runs one refresh pass over the current watchlist snapshot.
func (r *Refresher) refreshAll(ctx context.Context) {
	for _, symbol := range r.watchlist.Symbols() {
		if ctx.Err() != nil {
			return
		}
		if err := r.RefreshSymbol(ctx, symbol); err != nil {
			r.logger.Warn("sentiment refresh failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			r.activity.Record(domain.ActivityWarning, "Sentiment",
				fmt.Sprintf("sentiment refresh degraded: %v", err), symbol)
		}
	}
}

// RefreshSymbol rescores a single symbol. On failure the cached entry is left
// untouched so readers keep the last known value (marked stale by TTL).
func (r *Refresher) RefreshSymbol(ctx context.Context, symbol string) error {
	headlines, err := r.feed.Headlines(ctx, symbol, r.maxHeadlines)
	if err != nil {
		return fmt.Errorf("fetch headlines: %w", err)
	}

	// No news is a valid, neutral observation, not a failure.
	if len(headlines) == 0 {
		r.cache.Put(domain.SentimentScore{
			Symbol:    symbol,
			SampledAt: time.Now().UTC(),
		})
		return nil
	}

	texts := make([]string, 0, len(headlines))
	for _, h := range headlines {
		texts = append(texts, h.Title)
	}

	scored, err := r.scorer.ScoreBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("score batch: %w", err)
	}
	if len(scored) == 0 {
		return fmt.Errorf("score batch: empty result: %w", domain.ErrDataUnavailable)
	}

	var scoreSum, confSum float64
	for _, s := range scored {
		scoreSum += s.Score
		confSum += s.Confidence
	}
	n := float64(len(scored))

	r.cache.Put(domain.SentimentScore{
		Symbol:        symbol,
		Score:         scoreSum / n,
		Confidence:    confSum / n,
		HeadlineCount: len(scored),
		SampledAt:     time.Now().UTC(),
	})

	r.logger.Debug("sentiment refreshed",
		slog.String("symbol", symbol),
		slog.Float64("score", scoreSum/n),
		slog.Int("headlines", len(scored)),
	)
	return nil
}
