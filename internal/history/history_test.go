package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRingEvictsOldestAtCapacity(t *testing.T) {
	p := NewPortfolioLog(100)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		p.Append(domain.NewPortfolioSnapshot(base.Add(time.Duration(i)*time.Minute), float64(i), 0))
	}

	snaps := p.List()
	require.Len(t, snaps, 100)
	assert.Equal(t, 50.0, snaps[0].Cash, "the 50 oldest snapshots must be gone")
	assert.Equal(t, 149.0, snaps[99].Cash)

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, 149.0, latest.Cash)
}

func TestTradeLogNewestFirstWithLimit(t *testing.T) {
	tl := NewTradeLog(100)
	for i := 0; i < 5; i++ {
		tl.Append(domain.TradeRecord{ID: fmt.Sprintf("t%d", i)})
	}

	recent := tl.List(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "t4", recent[0].ID)
	assert.Equal(t, "t3", recent[1].ID)

	all := tl.List(0)
	assert.Len(t, all, 5)
}

func TestActivityLogRecordsEntries(t *testing.T) {
	a := NewActivityLog(100, discardLogger())
	a.Record(domain.ActivitySuccess, "Execution", "Bought 10 AAPL", "AAPL")
	a.Record(domain.ActivityWarning, "Sentiment", "FinBERT unreachable", "")

	entries := a.List(0)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "Sentiment", entries[0].Category)
	assert.Equal(t, domain.ActivityWarning, entries[0].Level)
	assert.Equal(t, "AAPL", entries[1].Symbol)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestActivityLogCapsAtCapacity(t *testing.T) {
	a := NewActivityLog(100, discardLogger())
	for i := 0; i < 120; i++ {
		a.Record(domain.ActivityInfo, "Scheduler", fmt.Sprintf("tick %d", i), "")
	}
	assert.Equal(t, 100, a.Len())

	entries := a.List(0)
	assert.Equal(t, "tick 119", entries[0].Message)
	assert.Equal(t, "tick 20", entries[99].Message)
}

func TestActivityLogConcurrentRecords(t *testing.T) {
	a := NewActivityLog(100, discardLogger())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a.Record(domain.ActivityInfo, "Scheduler", "tick", "")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, a.Len())
}

type acctBroker struct {
	acct domain.Account
	err  error
}

func (b acctBroker) Account(ctx context.Context) (domain.Account, error) { return b.acct, b.err }
func (b acctBroker) Positions(ctx context.Context) ([]domain.Position, error) {
	return nil, nil
}
func (b acctBroker) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}
func (b acctBroker) ClosePosition(ctx context.Context, symbol string) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}
func (b acctBroker) LatestQuote(ctx context.Context, symbol string, class domain.AssetClass) (domain.Quote, error) {
	return domain.Quote{}, nil
}
func (b acctBroker) Bars(ctx context.Context, symbol string, class domain.AssetClass, limit int) ([]domain.Bar, error) {
	return nil, nil
}

func TestSnapshotInvariantHolds(t *testing.T) {
	bk := book.New()
	now := time.Now()
	bk.ApplyBuy("AAPL", domain.AssetStock, 10, 100, now)
	bk.MarkPrice("AAPL", 110)
	ledger := book.NewLedger(99000)

	s := NewSnapshotter(bk, ledger, acctBroker{err: domain.ErrDataUnavailable},
		NewPortfolioLog(100), time.Minute, discardLogger())

	snap := s.Snapshot(context.Background())
	assert.InDelta(t, 99000.0, snap.Cash, 1e-9)
	assert.InDelta(t, 1100.0, snap.PositionsValue, 1e-9)
	assert.InDelta(t, snap.Cash+snap.PositionsValue, snap.TotalValue, 1e-9)
}

func TestSnapshotPrefersLiveAccountCash(t *testing.T) {
	bk := book.New()
	ledger := book.NewLedger(50000)
	broker := acctBroker{acct: domain.Account{Cash: 123456}}

	s := NewSnapshotter(bk, ledger, broker, NewPortfolioLog(100), time.Minute, discardLogger())
	snap := s.Snapshot(context.Background())
	assert.Equal(t, 123456.0, snap.Cash)
}

func TestSnapshotAppendsToLog(t *testing.T) {
	bk := book.New()
	ledger := book.NewLedger(1000)
	plog := NewPortfolioLog(100)
	s := NewSnapshotter(bk, ledger, acctBroker{err: domain.ErrDataUnavailable}, plog, time.Minute, discardLogger())

	s.Snapshot(context.Background())
	s.Snapshot(context.Background())
	assert.Equal(t, 2, plog.Len())
}
