package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// writeJSON encodes v and writes it with the given status. An encoding
// failure degrades to a plain 500 body rather than a half-written response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseListOpts reads limit/offset pagination from the query string. The
// limit defaults to 50 and is clamped to 500 so a greedy dashboard query
// cannot drag the whole trail over the wire.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathParam reads a named wildcard from the mux pattern.
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
