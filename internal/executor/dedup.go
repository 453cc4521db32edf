package executor

import (
	"sync"
	"time"
)

// Dedup remembers recently used idempotency keys so a decision cycle that is
// observed twice (a retried tick, an overlapping manual action) cannot submit
// the same order twice within the TTL window. It is safe for concurrent use.
type Dedup struct {
	seen map[string]time.Time
	ttl  time.Duration
	mu   sync.Mutex
	now  func() time.Time
}

// NewDedup creates a Dedup that treats a key as a duplicate when it was seen
// within the given ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Seen reports whether key was used within the TTL window. A key that is new
// or expired is recorded and false is returned.
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.ttl {
		return true
	}
	d.seen[key] = now
	return false
}

// Cleanup drops expired entries. Called periodically to keep the map bounded.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}
