package history

import "github.com/tallmansamadam/ladybug-trading/internal/domain"

// PortfolioLog is the bounded trail of portfolio value snapshots backing the
// dashboard chart.
type PortfolioLog struct {
	ring *ring[domain.PortfolioSnapshot]
}

// NewPortfolioLog creates a portfolio log holding the most recent capacity
// snapshots.
func NewPortfolioLog(capacity int) *PortfolioLog {
	return &PortfolioLog{ring: newRing[domain.PortfolioSnapshot](capacity)}
}

// Append records a snapshot.
func (p *PortfolioLog) Append(snap domain.PortfolioSnapshot) { p.ring.append(snap) }

// List returns every retained snapshot, oldest first.
func (p *PortfolioLog) List() []domain.PortfolioSnapshot { return p.ring.list() }

// Latest returns the most recent snapshot.
func (p *PortfolioLog) Latest() (domain.PortfolioSnapshot, bool) {
	items := p.ring.list()
	if len(items) == 0 {
		return domain.PortfolioSnapshot{}, false
	}
	return items[len(items)-1], true
}

// Len returns the number of retained snapshots.
func (p *PortfolioLog) Len() int { return p.ring.len() }
