package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/scheduler"
)

// ModeHandler serves and switches the trading mode.
type ModeHandler struct {
	state    *scheduler.State
	activity ActivityRecorder
}

// NewModeHandler creates a ModeHandler.
func NewModeHandler(state *scheduler.State, activity ActivityRecorder) *ModeHandler {
	return &ModeHandler{state: state, activity: activity}
}

// GetMode responds with the active trading mode and its symbol universes.
// GET /api/trading-mode
func (h *ModeHandler) GetMode(w http.ResponseWriter, r *http.Request) {
	mode := h.state.Mode()
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":   mode,
		"stocks": domain.Universe(mode, domain.AssetStock),
		"crypto": domain.Universe(mode, domain.AssetCrypto),
	})
}

// SetMode switches the trading mode. The new universe applies from the next
// tick of each loop.
// POST /api/trading-mode
func (h *ModeHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode, err := domain.ParseTradingMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown trading mode: "+req.Mode)
		return
	}
	if err := h.state.SetMode(mode); err != nil {
		writeError(w, http.StatusBadRequest, "unknown trading mode: "+req.Mode)
		return
	}

	h.activity.Record(domain.ActivityInfo, "Controls", "Trading mode set to "+req.Mode, "")
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode})
}
