package signal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

func ptr(f float64) *float64 { return &f }

func TestCombineExactAverage(t *testing.T) {
	assert.InDelta(t, 0.15, Combine(0.10, ptr(0.20)), 1e-12)
}

func TestCombineFallbackWithoutSentiment(t *testing.T) {
	assert.Equal(t, 0.10, Combine(0.10, nil))
	assert.Equal(t, -0.42, Combine(-0.42, nil))
}

func TestCombineAlwaysBounded(t *testing.T) {
	cases := []struct {
		technical float64
		sentiment *float64
	}{
		{2.5, nil},
		{-3.0, nil},
		{1.0, ptr(1.0)},
		{-1.0, ptr(-1.0)},
		{0.9, ptr(0.9)},
		{5.0, ptr(5.0)},
		{math.Inf(1), nil},
	}
	for _, tc := range cases {
		got := Combine(tc.technical, tc.sentiment)
		assert.GreaterOrEqual(t, got, -1.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestCombineZeroSentimentIsNotFallback(t *testing.T) {
	// An explicit zero sentiment halves the technical score; a missing one
	// leaves it untouched. The two must stay distinguishable.
	assert.InDelta(t, 0.3, Combine(0.6, ptr(0.0)), 1e-12)
	assert.InDelta(t, 0.6, Combine(0.6, nil), 1e-12)
}

func TestNewValueCarriesComponents(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := NewValue("AAPL", 0.10, ptr(0.20), at)

	assert.Equal(t, "AAPL", v.Symbol)
	assert.Equal(t, 0.10, v.Technical)
	require.NotNil(t, v.Sentiment)
	assert.Equal(t, 0.20, *v.Sentiment)
	assert.InDelta(t, 0.15, v.Combined, 1e-12)
	assert.Equal(t, at, v.ComputedAt)
}

// ---------------------------------------------------------------------------
// Technical scoring
// ---------------------------------------------------------------------------

func barsFromCloses(closes []float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = domain.Bar{Timestamp: base.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func TestTechnicalScoreNeedsHistory(t *testing.T) {
	_, err := TechnicalScore(barsFromCloses([]float64{1, 2, 3}), DefaultWeights())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

// choppyTrend builds a series drifting by two steps forward and one back (or
// the mirror image), keeping RSI inside the bands so the moving averages and
// momentum carry the score.
func choppyTrend(start float64, up bool, n int) []float64 {
	closes := make([]float64, n)
	closes[0] = start
	for i := 1; i < n; i++ {
		var change float64
		if i%2 == 1 {
			change = 2
		} else {
			change = -1
		}
		if !up {
			change = -change
		}
		closes[i] = closes[i-1] + change
	}
	return closes
}

func TestTechnicalScoreUptrendIsPositive(t *testing.T) {
	score, err := TechnicalScore(barsFromCloses(choppyTrend(100, true, 60)), DefaultWeights())
	require.NoError(t, err)
	assert.Positive(t, score)
	assert.LessOrEqual(t, score, 1.0)
}

func TestTechnicalScoreDowntrendIsNegative(t *testing.T) {
	score, err := TechnicalScore(barsFromCloses(choppyTrend(200, false, 60)), DefaultWeights())
	require.NoError(t, err)
	assert.Negative(t, score)
	assert.GreaterOrEqual(t, score, -1.0)
}

func TestTechnicalScoreOversoldRecoveryIsStrongBuy(t *testing.T) {
	// Long flat stretch, a sharp four-bar drop, then ten bars of recovery:
	// RSI reads oversold and momentum is positive, overpowering the bearish
	// moving-average crossover.
	closes := make([]float64, 0, 60)
	for i := 0; i < 46; i++ {
		closes = append(closes, 200)
	}
	for i := 0; i < 4; i++ {
		closes = append(closes, closes[len(closes)-1]-30)
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, closes[len(closes)-1]+2)
	}
	score, err := TechnicalScore(barsFromCloses(closes), DefaultWeights())
	require.NoError(t, err)
	assert.Greater(t, score, 0.3)
}

func TestTechnicalScoreParabolicMoveReadsOverbought(t *testing.T) {
	// A straight-line climb maxes RSI out, which caps the enthusiasm of the
	// trend contributions.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	score, err := TechnicalScore(barsFromCloses(closes), DefaultWeights())
	require.NoError(t, err)
	assert.Less(t, score, 0.15)
}

func TestTechnicalScoreFlatSeriesIsNeutral(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	score, err := TechnicalScore(barsFromCloses(closes), DefaultWeights())
	require.NoError(t, err)
	assert.InDelta(t, 0, score, 0.01)
}

func TestTechnicalScoreBounded(t *testing.T) {
	// A violent move can push every contribution to its cap; the sum still
	// has to stay inside the signal range.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 1 + 100*float64(i)
	}
	score, err := TechnicalScore(barsFromCloses(closes), DefaultWeights())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, -1.0)
	assert.LessOrEqual(t, score, 1.0)
}
