package handler

import (
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/history"
)

// demoSymbols are the symbols fabricated trades draw from.
var demoSymbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "BTC/USD", "ETH/USD"}

// DemoHandler fabricates sample history entries so the dashboard can be
// exercised without broker credentials or a running engine.
type DemoHandler struct {
	trades    *history.TradeLog
	portfolio *history.PortfolioLog
	activity  ActivityRecorder
	ledger    *book.Ledger
	bk        *book.Book
}

// NewDemoHandler creates a DemoHandler.
func NewDemoHandler(trades *history.TradeLog, portfolio *history.PortfolioLog, activity ActivityRecorder, ledger *book.Ledger, bk *book.Book) *DemoHandler {
	return &DemoHandler{
		trades:    trades,
		portfolio: portfolio,
		activity:  activity,
		ledger:    ledger,
		bk:        bk,
	}
}

// Generate appends one fabricated trade, one portfolio snapshot, and one
// activity entry. The trade does not touch the position book or the ledger;
// it exists only in the history trails.
// POST /api/test/generate
func (h *DemoHandler) Generate(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	symbol := demoSymbols[rand.IntN(len(demoSymbols))]
	class := domain.AssetStock
	if symbol == "BTC/USD" || symbol == "ETH/USD" {
		class = domain.AssetCrypto
	}

	side := domain.OrderSideBuy
	var pnl float64
	if rand.IntN(2) == 1 {
		side = domain.OrderSideSell
		pnl = rand.Float64()*200 - 50
	}

	rec := domain.TradeRecord{
		ID:          uuid.New().String(),
		Symbol:      symbol,
		Class:       class,
		Action:      side,
		Quantity:    1 + rand.Float64()*9,
		Price:       50 + rand.Float64()*450,
		RealizedPnL: pnl,
		Timestamp:   now,
	}
	h.trades.Append(rec)

	snap := domain.NewPortfolioSnapshot(now, h.ledger.Balance(), h.bk.Value())
	h.portfolio.Append(snap)

	h.activity.Record(domain.ActivityInfo, "Demo",
		"Generated sample "+string(side)+" trade", symbol)

	writeJSON(w, http.StatusCreated, map[string]any{
		"trade":    rec.ID,
		"snapshot": snap.Timestamp,
	})
}
