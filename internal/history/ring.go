// Package history keeps the bounded in-memory trails the dashboard reads:
// portfolio snapshots, activity events, and fills. Each trail holds the most
// recent entries up to a fixed capacity; older entries are dropped, durable
// retention is the job of the optional stores and the S3 archiver.
package history

import "sync"

// ring is a bounded append-only buffer. Appending past capacity evicts the
// oldest entry. Safe for concurrent use.
type ring[T any] struct {
	mu    sync.RWMutex
	items []T
	cap   int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring[T]{cap: capacity}
}

func (r *ring[T]) append(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	if len(r.items) > r.cap {
		r.items = r.items[len(r.items)-r.cap:]
	}
}

// list returns a copy, oldest first.
func (r *ring[T]) list() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), r.items...)
}

// listNewest returns a copy, newest first, at most limit entries. A limit of
// zero or less returns everything.
func (r *ring[T]) listNewest(limit int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.items)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]T, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.items[i])
	}
	return out
}

func (r *ring[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
