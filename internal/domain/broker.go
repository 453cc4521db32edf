package domain

import "context"

// Broker is the boundary to the external brokerage. Implementations must
// guarantee that resubmitting an order with the same idempotency key never
// produces a second fill.
type Broker interface {
	Account(ctx context.Context) (Account, error)
	Positions(ctx context.Context) ([]Position, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ClosePosition(ctx context.Context, symbol string) (OrderResult, error)
	LatestQuote(ctx context.Context, symbol string, class AssetClass) (Quote, error)
	Bars(ctx context.Context, symbol string, class AssetClass, limit int) ([]Bar, error)
}

// NewsFeed returns a bounded list of recent headlines for a symbol. An empty
// list is a valid response, not an error.
type NewsFeed interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]Headline, error)
}

// ScoredText is one scored headline from the sentiment service.
type ScoredText struct {
	Text       string
	Label      string
	Score      float64 // [-1, 1]
	Confidence float64
}

// SentimentScorer scores a batch of texts through the external NLP service.
type SentimentScorer interface {
	ScoreBatch(ctx context.Context, texts []string) ([]ScoredText, error)
}
