package handler

import (
	"net/http"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/history"
)

// HistoryHandler serves the bounded in-memory trails: activity log, portfolio
// history, and recent trades.
type HistoryHandler struct {
	trades    *history.TradeLog
	portfolio *history.PortfolioLog
	activity  *history.ActivityLog
}

// NewHistoryHandler creates a HistoryHandler over the history trails.
func NewHistoryHandler(trades *history.TradeLog, portfolio *history.PortfolioLog, activity *history.ActivityLog) *HistoryHandler {
	return &HistoryHandler{trades: trades, portfolio: portfolio, activity: activity}
}

type activityResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Symbol    string    `json:"symbol,omitempty"`
}

// ListLogs responds with recent activity entries, newest first.
// GET /api/logs
func (h *HistoryHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	entries := h.activity.List(opts.Limit)
	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Level:     string(e.Level),
			Category:  e.Category,
			Message:   e.Message,
			Symbol:    e.Symbol,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type snapshotResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	TotalValue     float64   `json:"total_value"`
}

// ListPortfolioHistory responds with the retained snapshots, oldest first, so
// the dashboard can chart them directly.
// GET /api/portfolio/history
func (h *HistoryHandler) ListPortfolioHistory(w http.ResponseWriter, r *http.Request) {
	snaps := h.portfolio.List()
	out := make([]snapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, snapshotResponse{
			Timestamp:      s.Timestamp,
			Cash:           s.Cash,
			PositionsValue: s.PositionsValue,
			TotalValue:     s.TotalValue,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type tradeResponse struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Class       string    `json:"asset_class"`
	Action      string    `json:"action"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	RealizedPnL float64   `json:"realized_pnl"`
	Timestamp   time.Time `json:"timestamp"`
}

// ListTradeHistory responds with recent fills, newest first.
// GET /api/trades/history
func (h *HistoryHandler) ListTradeHistory(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	trades := h.trades.List(opts.Limit)
	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeResponse{
			ID:          t.ID,
			Symbol:      t.Symbol,
			Class:       string(t.Class),
			Action:      string(t.Action),
			Quantity:    t.Quantity,
			Price:       t.Price,
			RealizedPnL: t.RealizedPnL,
			Timestamp:   t.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
