package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/scheduler"
)

// StatusHandler serves the engine status and the per-class trading toggles.
type StatusHandler struct {
	state     *scheduler.State
	book      *book.Book
	activity  ActivityRecorder
	startedAt time.Time
}

// ActivityRecorder receives operator actions for the dashboard trail.
type ActivityRecorder interface {
	Record(level domain.ActivityLevel, category, message, symbol string)
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(state *scheduler.State, bk *book.Book, activity ActivityRecorder, startedAt time.Time) *StatusHandler {
	return &StatusHandler{state: state, book: bk, activity: activity, startedAt: startedAt}
}

// GetStatus responds with the toggles, trading mode, and open position count.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stock_enabled":  h.state.Enabled(domain.AssetStock),
		"crypto_enabled": h.state.Enabled(domain.AssetCrypto),
		"trading_mode":   h.state.Mode(),
		"open_positions": h.book.Len(),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// toggleRequest is the body of the toggle endpoints. The flag is set, not
// flipped, so a retried request cannot undo itself.
type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// ToggleStock sets the stock loop on or off from the request body. The change
// takes effect at the next tick boundary.
// POST /api/toggle
func (h *StatusHandler) ToggleStock(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, domain.AssetStock)
}

// ToggleCrypto sets the crypto loop on or off.
// POST /api/toggle/crypto
func (h *StatusHandler) ToggleCrypto(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, domain.AssetCrypto)
}

func (h *StatusHandler) toggle(w http.ResponseWriter, r *http.Request, class domain.AssetClass) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `body must be {"enabled":bool}`)
		return
	}

	h.state.SetEnabled(class, *req.Enabled)
	verb := "disabled"
	if *req.Enabled {
		verb = "enabled"
	}
	h.activity.Record(domain.ActivityInfo, "Controls",
		string(class)+" trading "+verb, "")
	writeJSON(w, http.StatusOK, map[string]any{
		"class":   class,
		"enabled": *req.Enabled,
	})
}
