// Package scheduler drives the periodic decision cycles, one independent loop
// per asset class.
package scheduler

import (
	"sync"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// State is the shared runtime switchboard: the active trading mode and the
// per-class enable flags the dashboard toggles. Flag changes take effect at
// the next tick boundary; a cycle already in flight always completes.
type State struct {
	mu      sync.RWMutex
	mode    domain.TradingMode
	enabled map[domain.AssetClass]bool
}

// NewState creates a State with both loops enabled and the given mode.
func NewState(mode domain.TradingMode) *State {
	return &State{
		mode: mode,
		enabled: map[domain.AssetClass]bool{
			domain.AssetStock:  true,
			domain.AssetCrypto: true,
		},
	}
}

// Mode returns the active trading mode.
func (s *State) Mode() domain.TradingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the trading mode. The new symbol universe applies from the
// next tick of each loop.
func (s *State) SetMode(mode domain.TradingMode) error {
	if !mode.Valid() {
		return domain.ErrNotFound
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// Enabled reports whether the loop for class should run its next tick.
func (s *State) Enabled(class domain.AssetClass) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled[class]
}

// SetEnabled sets the enable flag for class.
func (s *State) SetEnabled(class domain.AssetClass, on bool) {
	s.mu.Lock()
	s.enabled[class] = on
	s.mu.Unlock()
}
