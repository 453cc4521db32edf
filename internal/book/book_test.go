package book

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

var at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestApplyBuyOpensPosition(t *testing.T) {
	b := New()
	pos := b.ApplyBuy("AAPL", domain.AssetStock, 10, 100, at)

	assert.Equal(t, 10.0, pos.Qty)
	assert.Equal(t, 100.0, pos.EntryPrice)
	assert.Equal(t, 1, b.Len())
}

func TestApplyBuyWeightedAverageEntry(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 10, 100, at)
	pos := b.ApplyBuy("AAPL", domain.AssetStock, 10, 140, at)

	assert.Equal(t, 20.0, pos.Qty)
	assert.InDelta(t, 120.0, pos.EntryPrice, 1e-9)
}

func TestApplySellRealizedPnL(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 10, 120, at)

	realized, closed, err := b.ApplySell("AAPL", 10, 150, at)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.InDelta(t, 300.0, realized, 1e-9)

	_, ok := b.Get("AAPL")
	assert.False(t, ok, "fully sold position must be removed")
}

func TestApplySellPartialKeepsPosition(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 10, 100, at)

	realized, closed, err := b.ApplySell("AAPL", 4, 110, at)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.InDelta(t, 40.0, realized, 1e-9)

	pos, ok := b.Get("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 6.0, pos.Qty, 1e-9)
	assert.InDelta(t, 100.0, pos.EntryPrice, 1e-9, "partial close must not move the cost basis")
}

func TestApplySellMissingPosition(t *testing.T) {
	b := New()
	_, _, err := b.ApplySell("AAPL", 1, 100, at)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplySellOversizedClampsToHeld(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 5, 100, at)

	realized, closed, err := b.ApplySell("AAPL", 50, 120, at)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.InDelta(t, 100.0, realized, 1e-9)
}

func TestConcurrentBuysDoNotLoseUpdates(t *testing.T) {
	b := New()
	const workers = 8
	const fills = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < fills; j++ {
				b.ApplyBuy("BTC/USD", domain.AssetCrypto, 1, 50000, at)
			}
		}()
	}
	wg.Wait()

	pos, ok := b.Get("BTC/USD")
	require.True(t, ok)
	assert.Equal(t, float64(workers*fills), pos.Qty)
}

func TestConcurrentMixedFillsAcrossSymbols(t *testing.T) {
	b := New()
	symbols := []string{"AAPL", "TSLA", "BTC/USD", "ETH/USD"}

	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.ApplyBuy(sym, domain.AssetStock, 2, 10, at)
				_, _, err := b.ApplySell(sym, 1, 12, at)
				require.NoError(t, err)
			}
		}(sym)
	}
	wg.Wait()

	for _, sym := range symbols {
		pos, ok := b.Get(sym)
		require.True(t, ok, sym)
		assert.Equal(t, 50.0, pos.Qty, sym)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 10, 100, at)

	snap := b.Snapshot()
	require.Len(t, snap, 1)
	snap[0].Qty = 999

	pos, _ := b.Get("AAPL")
	assert.Equal(t, 10.0, pos.Qty, "mutating a snapshot must not touch the book")
}

func TestMarkPriceAndValue(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 10, 100, at)
	b.ApplyBuy("BTC/USD", domain.AssetCrypto, 2, 50000, at)

	b.MarkPrice("AAPL", 110)
	b.MarkPrice("MISSING", 1) // no-op

	assert.InDelta(t, 10*110+2*50000, b.Value(), 1e-9)

	pos, _ := b.Get("AAPL")
	assert.InDelta(t, 100.0, pos.UnrealizedPnL(), 1e-9)
	assert.InDelta(t, 0.10, pos.UnrealizedPnLPct(), 1e-9)
}

func TestSnapshotClassFilters(t *testing.T) {
	b := New()
	b.ApplyBuy("AAPL", domain.AssetStock, 1, 100, at)
	b.ApplyBuy("BTC/USD", domain.AssetCrypto, 1, 50000, at)

	stocks := b.SnapshotClass(domain.AssetStock)
	require.Len(t, stocks, 1)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
}
