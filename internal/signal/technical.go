package signal

import (
	"fmt"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// Weights is the technical scoring policy. The contributions are additive and
// the total is clamped to [-1, 1].
type Weights struct {
	RSIPeriod  int
	RSIWeight  float64
	SMAFast    int
	SMASlow    int
	SMAWeight  float64
	Momentum   int
	MomWeight  float64
	MinHistory int
}

// DefaultWeights returns the scoring policy used when none is configured:
// RSI-14 contributes up to ±0.3, the 20/50 SMA crossover ±0.2, and 10-bar
// momentum up to ±0.3.
func DefaultWeights() Weights {
	return Weights{
		RSIPeriod:  14,
		RSIWeight:  0.3,
		SMAFast:    20,
		SMASlow:    50,
		SMAWeight:  0.2,
		Momentum:   10,
		MomWeight:  0.3,
		MinHistory: 20,
	}
}

// TechnicalScore scores a bar series (oldest first) under the given policy.
// It returns domain.ErrDataUnavailable when the series is too short to score.
func TechnicalScore(bars []domain.Bar, w Weights) (float64, error) {
	if len(bars) < w.MinHistory {
		return 0, fmt.Errorf("need %d bars, have %d: %w", w.MinHistory, len(bars), domain.ErrDataUnavailable)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	var score float64

	// RSI: oversold pushes toward buy, overbought toward sell.
	if rsi, ok := rsi(closes, w.RSIPeriod); ok {
		switch {
		case rsi < 30:
			score += w.RSIWeight
		case rsi > 70:
			score -= w.RSIWeight
		default:
			// Scale linearly between the bands: 50 is neutral.
			score += w.RSIWeight * (50 - rsi) / 50
		}
	}

	// SMA crossover: fast above slow is bullish.
	fast, fastOK := sma(closes, w.SMAFast)
	slow, slowOK := sma(closes, w.SMASlow)
	if fastOK && slowOK && slow != 0 {
		if fast > slow {
			score += w.SMAWeight
		} else if fast < slow {
			score -= w.SMAWeight
		}
	}

	// Momentum: fractional change over the window, clamped to the weight.
	if n := len(closes); n > w.Momentum && closes[n-1-w.Momentum] != 0 {
		mom := (closes[n-1] - closes[n-1-w.Momentum]) / closes[n-1-w.Momentum]
		score += clamp(mom, -w.MomWeight, w.MomWeight)
	}

	return clamp(score, -1, 1), nil
}

// rsi computes the relative strength index over the last period changes.
func rsi(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}

	var gains, losses float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if gains == 0 && losses == 0 {
		return 50, true
	}
	if losses == 0 {
		return 100, true
	}
	rs := gains / losses
	return 100 - 100/(1+rs), true
}

// sma computes the simple moving average of the last period closes.
func sma(closes []float64, period int) (float64, bool) {
	if len(closes) < period || period <= 0 {
		return 0, false
	}
	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), true
}
