package sentiment

import (
	"strings"
	"sync"
)

// Watchlist is the mutable set of symbols the refresher scores. The dashboard
// can replace it at runtime; the refresher snapshots it at the start of each
// pass.
type Watchlist struct {
	mu      sync.RWMutex
	symbols []string
}

// NewWatchlist creates a watchlist seeded with the given symbols.
func NewWatchlist(symbols []string) *Watchlist {
	return &Watchlist{symbols: normalize(symbols)}
}

// Symbols returns a copy of the current symbol list.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.symbols))
	copy(out, w.symbols)
	return out
}

// Replace swaps the whole symbol list.
func (w *Watchlist) Replace(symbols []string) {
	cleaned := normalize(symbols)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.symbols = cleaned
}

// normalize trims whitespace, uppercases, and drops empty entries and
// duplicates while preserving order.
func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
