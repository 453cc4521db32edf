package alpaca

import "time"

// accountResponse is the wire shape of GET /v2/account. Monetary fields are
// decimal strings.
type accountResponse struct {
	Cash           string `json:"cash"`
	BuyingPower    string `json:"buying_power"`
	PortfolioValue string `json:"portfolio_value"`
	Currency       string `json:"currency"`
}

// positionResponse is the wire shape of one entry in GET /v2/positions.
type positionResponse struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	AssetClass    string `json:"asset_class"` // "us_equity" or "crypto"
}

// orderRequest is the wire shape of POST /v2/orders.
type orderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	Qty           string `json:"qty,omitempty"`
	Notional      string `json:"notional,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// orderResponse is the wire shape of an order returned by the trading API.
type orderResponse struct {
	ID             string `json:"id"`
	ClientOrderID  string `json:"client_order_id"`
	Status         string `json:"status"`
	FilledQty      string `json:"filled_qty"`
	FilledAvgPrice string `json:"filled_avg_price"`
}

// barResponse is the wire shape of one OHLCV candle.
type barResponse struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// stockBarsResponse is the wire shape of GET /v2/stocks/{symbol}/bars.
type stockBarsResponse struct {
	Bars []barResponse `json:"bars"`
}

// cryptoBarsResponse is the wire shape of GET /v1beta3/crypto/us/bars.
type cryptoBarsResponse struct {
	Bars map[string][]barResponse `json:"bars"`
}

// tradeResponse is the wire shape of a latest-trade quote.
type tradeResponse struct {
	Price     float64   `json:"p"`
	Timestamp time.Time `json:"t"`
}

// latestStockTradeResponse is the wire shape of GET /v2/stocks/{symbol}/trades/latest.
type latestStockTradeResponse struct {
	Trade tradeResponse `json:"trade"`
}

// latestCryptoTradesResponse is the wire shape of GET /v1beta3/crypto/us/latest/trades.
type latestCryptoTradesResponse struct {
	Trades map[string]tradeResponse `json:"trades"`
}

// newsItemResponse is the wire shape of one article in GET /v1beta1/news.
type newsItemResponse struct {
	Headline  string    `json:"headline"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// newsResponse is the wire shape of GET /v1beta1/news.
type newsResponse struct {
	News []newsItemResponse `json:"news"`
}

// apiErrorResponse is the wire shape of a trading API error body.
type apiErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
