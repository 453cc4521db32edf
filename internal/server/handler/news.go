package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/sentiment"
)

// maxWatchlistSize bounds how many symbols the sentiment refresher will track.
const maxWatchlistSize = 50

// NewsHandler serves and updates the sentiment watchlist.
type NewsHandler struct {
	watchlist *sentiment.Watchlist
	activity  ActivityRecorder
}

// NewNewsHandler creates a NewsHandler over the watchlist.
func NewNewsHandler(watchlist *sentiment.Watchlist, activity ActivityRecorder) *NewsHandler {
	return &NewsHandler{watchlist: watchlist, activity: activity}
}

// GetSymbols responds with the current watchlist.
// GET /api/news/symbols
func (h *NewsHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": h.watchlist.Symbols(),
	})
}

// UpdateSymbols replaces the watchlist. The new set applies from the next
// sentiment refresh pass.
// POST /api/news/symbols
func (h *NewsHandler) UpdateSymbols(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols must not be empty")
		return
	}
	if len(req.Symbols) > maxWatchlistSize {
		writeError(w, http.StatusBadRequest, "too many symbols")
		return
	}

	h.watchlist.Replace(req.Symbols)
	h.activity.Record(domain.ActivityInfo, "Sentiment", "News watchlist updated", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": h.watchlist.Symbols(),
	})
}
