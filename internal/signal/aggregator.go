// Package signal turns market data and cached sentiment into one directional
// score per symbol.
package signal

import "time"

// Combine blends a technical score with an optional sentiment score into one
// directional signal. With sentiment present the result is the plain average;
// without it the technical score stands alone (the caller logs the fallback,
// it is never silently treated as zero sentiment). The result is clamped to
// [-1, 1].
func Combine(technical float64, sentiment *float64) float64 {
	if sentiment == nil {
		return clamp(technical, -1, 1)
	}
	return clamp((technical+*sentiment)/2, -1, 1)
}

// Value bundles a combined score with its components for logging and the
// activity trail.
type Value struct {
	Symbol     string
	Technical  float64
	Sentiment  *float64
	Combined   float64
	ComputedAt time.Time
}

// NewValue computes the combined score for a symbol at the given decision
// time.
func NewValue(symbol string, technical float64, sentiment *float64, at time.Time) Value {
	return Value{
		Symbol:     symbol,
		Technical:  technical,
		Sentiment:  sentiment,
		Combined:   Combine(technical, sentiment),
		ComputedAt: at,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
