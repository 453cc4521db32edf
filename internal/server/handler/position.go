package handler

import (
	"net/http"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// PositionHandler serves the open positions per asset class.
type PositionHandler struct {
	book *book.Book
}

// NewPositionHandler creates a PositionHandler over the position book.
func NewPositionHandler(bk *book.Book) *PositionHandler {
	return &PositionHandler{book: bk}
}

type positionResponse struct {
	Symbol           string    `json:"symbol"`
	Class            string    `json:"asset_class"`
	Qty              float64   `json:"qty"`
	EntryPrice       float64   `json:"entry_price"`
	CurrentPrice     float64   `json:"current_price"`
	MarketValue      float64   `json:"market_value"`
	UnrealizedPnL    float64   `json:"unrealized_pl"`
	UnrealizedPnLPct float64   `json:"unrealized_pl_pct"`
	OpenedAt         time.Time `json:"opened_at"`
}

// ListStocks responds with the open stock positions.
// GET /api/positions
func (h *PositionHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	h.list(w, domain.AssetStock)
}

// ListCrypto responds with the open crypto positions.
// GET /api/positions/crypto
func (h *PositionHandler) ListCrypto(w http.ResponseWriter, r *http.Request) {
	h.list(w, domain.AssetCrypto)
}

func (h *PositionHandler) list(w http.ResponseWriter, class domain.AssetClass) {
	positions := h.book.SnapshotClass(class)
	out := make([]positionResponse, 0, len(positions))
	for _, pos := range positions {
		out = append(out, positionResponse{
			Symbol:           pos.Symbol,
			Class:            string(pos.Class),
			Qty:              pos.Qty,
			EntryPrice:       pos.EntryPrice,
			CurrentPrice:     pos.CurrentPrice,
			MarketValue:      pos.MarketValue(),
			UnrealizedPnL:    pos.UnrealizedPnL(),
			UnrealizedPnLPct: pos.UnrealizedPnLPct(),
			OpenedAt:         pos.OpenedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
