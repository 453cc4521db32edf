// Package finbert is the REST client for the external sentiment scoring
// service. The service wraps a financial-news NLP model and scores batches of
// texts; its score is P(positive) - P(negative), in [-1, 1].
package finbert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// Client calls the sentiment service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the sentiment service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// batchRequest is the wire shape of POST /batch.
type batchRequest struct {
	Texts []string `json:"texts"`
}

// batchResult is one scored text in the /batch response.
type batchResult struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// batchResponse is the wire shape of the /batch response.
type batchResponse struct {
	Results []batchResult `json:"results"`
}

// ScoreBatch scores texts in one request. Any transport or decode failure is
// reported as domain.ErrDataUnavailable: the caller degrades to its cached
// sentiment rather than treating the scorer as load-bearing.
func (c *Client) ScoreBatch(ctx context.Context, texts []string) ([]domain.ScoredText, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(batchRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("finbert: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("finbert: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finbert: request: %v: %w", err, domain.ErrDataUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("finbert: HTTP %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrDataUnavailable)
	}

	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("finbert: decode batch: %v: %w", err, domain.ErrDataUnavailable)
	}

	scored := make([]domain.ScoredText, 0, len(out.Results))
	for _, r := range out.Results {
		// Fail closed on out-of-range scores instead of letting them skew
		// the average.
		if r.Score < -1 || r.Score > 1 {
			continue
		}
		scored = append(scored, domain.ScoredText{
			Text:       r.Text,
			Label:      r.Sentiment,
			Score:      r.Score,
			Confidence: r.Confidence,
		})
	}
	return scored, nil
}

// Compile-time interface check.
var _ domain.SentimentScorer = (*Client)(nil)
