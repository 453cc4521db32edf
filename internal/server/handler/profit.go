package handler

import (
	"errors"
	"net/http"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/profit"
)

// ProfitHandler serves the manual profit-booking endpoints.
type ProfitHandler struct {
	booker *profit.Booker
}

// NewProfitHandler creates a ProfitHandler over the booker.
func NewProfitHandler(booker *profit.Booker) *ProfitHandler {
	return &ProfitHandler{booker: booker}
}

// BookSymbol closes the full position for one symbol at the current price.
// POST /api/book-profit/{symbol}
func (h *ProfitHandler) BookSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := h.booker.Book(r.Context(), symbol); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no open position for "+symbol)
			return
		}
		writeError(w, http.StatusBadGateway, "booking failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"symbol":  symbol,
	})
}

// BookAll closes every open position independently and reports the counts.
// POST /api/book-all-profits
func (h *ProfitHandler) BookAll(w http.ResponseWriter, r *http.Request) {
	res := h.booker.BookAll(r.Context())
	writeJSON(w, http.StatusOK, res)
}
