// Package alpaca implements the broker boundary against the Alpaca trading
// and market data APIs.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// Client is the REST client for the Alpaca trading and data APIs. A client
// without credentials still constructs (demo mode): data reads fail with
// domain.ErrDataUnavailable and order submission is rejected as terminal, so
// the engine can run end to end against the dashboard without a real account.
type Client struct {
	tradeHost  string
	dataHost   string
	keyID      string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a new Alpaca REST client. tradeHost is the trading API
// root (paper or live), dataHost the market data API root.
func NewClient(tradeHost, dataHost, keyID, secretKey string) *Client {
	return &Client{
		tradeHost: tradeHost,
		dataHost:  dataHost,
		keyID:     keyID,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HasCredentials reports whether the client can authenticate.
func (c *Client) HasCredentials() bool {
	return c.keyID != "" && c.secretKey != ""
}

// Account returns the broker account summary.
func (c *Client) Account(ctx context.Context) (domain.Account, error) {
	if !c.HasCredentials() {
		return domain.Account{}, fmt.Errorf("alpaca: no credentials: %w", domain.ErrDataUnavailable)
	}

	body, err := c.doRequest(ctx, http.MethodGet, c.tradeHost, "/v2/account", nil)
	if err != nil {
		return domain.Account{}, fmt.Errorf("alpaca: get account: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Account{}, fmt.Errorf("alpaca: decode account: %w", err)
	}

	return domain.Account{
		Cash:           parseFloat(resp.Cash),
		BuyingPower:    parseFloat(resp.BuyingPower),
		PortfolioValue: parseFloat(resp.PortfolioValue),
		Currency:       resp.Currency,
	}, nil
}

// Positions returns the broker's view of all open positions.
func (c *Client) Positions(ctx context.Context) ([]domain.Position, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("alpaca: no credentials: %w", domain.ErrDataUnavailable)
	}

	body, err := c.doRequest(ctx, http.MethodGet, c.tradeHost, "/v2/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("alpaca: get positions: %w", err)
	}

	var resp []positionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("alpaca: decode positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(resp))
	for _, p := range resp {
		class := domain.AssetStock
		if p.AssetClass == "crypto" {
			class = domain.AssetCrypto
		}
		positions = append(positions, domain.Position{
			Symbol:       p.Symbol,
			Class:        class,
			Qty:          parseFloat(p.Qty),
			EntryPrice:   parseFloat(p.AvgEntryPrice),
			CurrentPrice: parseFloat(p.CurrentPrice),
		})
	}
	return positions, nil
}

// SubmitOrder places a market order. The request's idempotency key is sent as
// the client order ID, so resubmitting the same decision cannot fill twice.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if !c.HasCredentials() {
		return domain.OrderResult{}, fmt.Errorf("alpaca: no credentials: %w", domain.ErrTerminalBroker)
	}

	wire := orderRequest{
		Symbol:        req.Symbol,
		Side:          string(req.Side),
		Type:          "market",
		TimeInForce:   "day",
		ClientOrderID: req.IdempotencyKey,
	}
	// Crypto orders are good-till-cancelled and sized by quantity; stock
	// orders are sized by notional.
	if req.Class == domain.AssetCrypto {
		wire.TimeInForce = "gtc"
	}
	if req.Qty > 0 {
		wire.Qty = strconv.FormatFloat(req.Qty, 'f', -1, 64)
	} else {
		wire.Notional = strconv.FormatFloat(req.Notional, 'f', 2, 64)
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.tradeHost, "/v2/orders", wire)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("alpaca: submit order %s %s: %w", req.Side, req.Symbol, err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("alpaca: decode order: %w", err)
	}

	return orderResultFrom(resp), nil
}

// ClosePosition liquidates the full position for symbol at market.
func (c *Client) ClosePosition(ctx context.Context, symbol string) (domain.OrderResult, error) {
	if !c.HasCredentials() {
		return domain.OrderResult{}, fmt.Errorf("alpaca: no credentials: %w", domain.ErrTerminalBroker)
	}

	path := "/v2/positions/" + url.PathEscape(symbol)
	body, err := c.doRequest(ctx, http.MethodDelete, c.tradeHost, path, nil)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("alpaca: close position %s: %w", symbol, err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("alpaca: decode close order: %w", err)
	}

	return orderResultFrom(resp), nil
}

// LatestQuote returns the most recent trade price for symbol. When the quote
// endpoint has no data it falls back to the close of the most recent bar.
func (c *Client) LatestQuote(ctx context.Context, symbol string, class domain.AssetClass) (domain.Quote, error) {
	quote, err := c.latestTrade(ctx, symbol, class)
	if err == nil && quote.Price > 0 {
		return quote, nil
	}

	bars, barsErr := c.Bars(ctx, symbol, class, 1)
	if barsErr != nil || len(bars) == 0 {
		if err == nil {
			err = fmt.Errorf("alpaca: empty quote for %s: %w", symbol, domain.ErrDataUnavailable)
		}
		return domain.Quote{}, err
	}

	last := bars[len(bars)-1]
	return domain.Quote{Symbol: symbol, Price: last.Close, Timestamp: last.Timestamp}, nil
}

func (c *Client) latestTrade(ctx context.Context, symbol string, class domain.AssetClass) (domain.Quote, error) {
	if !c.HasCredentials() {
		return domain.Quote{}, fmt.Errorf("alpaca: no credentials: %w", domain.ErrDataUnavailable)
	}

	if class == domain.AssetCrypto {
		path := "/v1beta3/crypto/us/latest/trades?symbols=" + url.QueryEscape(symbol)
		body, err := c.doRequest(ctx, http.MethodGet, c.dataHost, path, nil)
		if err != nil {
			return domain.Quote{}, fmt.Errorf("alpaca: latest crypto trade %s: %w", symbol, err)
		}
		var resp latestCryptoTradesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return domain.Quote{}, fmt.Errorf("alpaca: decode crypto trade: %w", err)
		}
		t, ok := resp.Trades[symbol]
		if !ok {
			return domain.Quote{}, fmt.Errorf("alpaca: no trade for %s: %w", symbol, domain.ErrDataUnavailable)
		}
		return domain.Quote{Symbol: symbol, Price: t.Price, Timestamp: t.Timestamp}, nil
	}

	path := fmt.Sprintf("/v2/stocks/%s/trades/latest", url.PathEscape(symbol))
	body, err := c.doRequest(ctx, http.MethodGet, c.dataHost, path, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alpaca: latest trade %s: %w", symbol, err)
	}
	var resp latestStockTradeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("alpaca: decode trade: %w", err)
	}
	return domain.Quote{Symbol: symbol, Price: resp.Trade.Price, Timestamp: resp.Trade.Timestamp}, nil
}

// Bars returns up to limit daily candles for symbol, oldest first.
func (c *Client) Bars(ctx context.Context, symbol string, class domain.AssetClass, limit int) ([]domain.Bar, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("alpaca: no credentials: %w", domain.ErrDataUnavailable)
	}

	params := url.Values{}
	params.Set("timeframe", "1Day")
	params.Set("limit", strconv.Itoa(limit))

	var wire []barResponse
	if class == domain.AssetCrypto {
		params.Set("symbols", symbol)
		body, err := c.doRequest(ctx, http.MethodGet, c.dataHost, "/v1beta3/crypto/us/bars?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("alpaca: crypto bars %s: %w", symbol, err)
		}
		var resp cryptoBarsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("alpaca: decode crypto bars: %w", err)
		}
		wire = resp.Bars[symbol]
	} else {
		path := fmt.Sprintf("/v2/stocks/%s/bars?%s", url.PathEscape(symbol), params.Encode())
		body, err := c.doRequest(ctx, http.MethodGet, c.dataHost, path, nil)
		if err != nil {
			return nil, fmt.Errorf("alpaca: bars %s: %w", symbol, err)
		}
		var resp stockBarsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("alpaca: decode bars: %w", err)
		}
		wire = resp.Bars
	}

	bars := make([]domain.Bar, 0, len(wire))
	for _, b := range wire {
		bars = append(bars, domain.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return bars, nil
}

// Headlines returns up to limit recent news articles mentioning symbol,
// newest first. An empty result is not an error.
func (c *Client) Headlines(ctx context.Context, symbol string, limit int) ([]domain.Headline, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("alpaca: no credentials: %w", domain.ErrDataUnavailable)
	}

	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, http.MethodGet, c.dataHost, "/v1beta1/news?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("alpaca: news %s: %w", symbol, err)
	}

	var resp newsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Malformed news is degraded data, not a hard failure.
		return nil, fmt.Errorf("alpaca: decode news: %w", domain.ErrDataUnavailable)
	}

	headlines := make([]domain.Headline, 0, len(resp.News))
	for _, n := range resp.News {
		if n.Headline == "" {
			continue
		}
		headlines = append(headlines, domain.Headline{
			Symbol:      symbol,
			Title:       n.Headline,
			Source:      n.Source,
			PublishedAt: n.CreatedAt,
		})
	}
	return headlines, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, authenticates, sends, and reads an HTTP request against
// one of the Alpaca API hosts.
func (c *Client) doRequest(ctx context.Context, method, host, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, host+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("APCA-API-KEY-ID", c.keyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Dial failures and timeouts are retryable.
		return nil, fmt.Errorf("http request: %v: %w", err, domain.ErrTransientNetwork)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %v: %w", err, domain.ErrTransientNetwork)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes onto the engine's error
// taxonomy: 5xx, timeouts and rate limits are transient; other 4xx are
// terminal broker rejections.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, apiErr.Message, domain.ErrTransientNetwork)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, apiErr.Message, domain.ErrNotFound)
	default:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, apiErr.Message, domain.ErrTerminalBroker)
	}
}

// orderResultFrom converts an API order into a domain result.
func orderResultFrom(resp orderResponse) domain.OrderResult {
	status := domain.OrderStatusSubmitted
	success := true
	switch resp.Status {
	case "filled":
		status = domain.OrderStatusFilled
	case "canceled", "rejected", "expired":
		status = domain.OrderStatusFailed
		success = false
	}
	return domain.OrderResult{
		Success:     success,
		OrderID:     resp.ID,
		Status:      status,
		FilledQty:   parseFloat(resp.FilledQty),
		FilledPrice: parseFloat(resp.FilledAvgPrice),
	}
}

// parseFloat parses a decimal string, returning 0 for empty or malformed
// values. The trading API encodes all monetary fields as strings.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Compile-time interface checks.
var (
	_ domain.Broker   = (*Client)(nil)
	_ domain.NewsFeed = (*Client)(nil)
)
