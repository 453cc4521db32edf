package executor

import (
	"context"
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

type fakeBroker struct {
	mu       sync.Mutex
	account  domain.Account
	acctErr  error
	orders   []domain.OrderRequest
	fails    []error // consumed per SubmitOrder call, nil entries succeed
	rejected bool    // 2xx response carrying a rejected order
	fillQty  float64
	fillPx   float64
	quoteErr error
	quotePx  float64
}

func (f *fakeBroker) Account(ctx context.Context) (domain.Account, error) {
	return f.account, f.acctErr
}

func (f *fakeBroker) Positions(ctx context.Context) ([]domain.Position, error) { return nil, nil }

func (f *fakeBroker) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, req)
	if len(f.fails) > 0 {
		err := f.fails[0]
		f.fails = f.fails[1:]
		if err != nil {
			return domain.OrderResult{Status: domain.OrderStatusFailed}, err
		}
	}
	if f.rejected {
		return domain.OrderResult{OrderID: "ord-1", Status: domain.OrderStatusFailed}, nil
	}
	return domain.OrderResult{
		Success:     true,
		OrderID:     "ord-1",
		Status:      domain.OrderStatusFilled,
		FilledQty:   f.fillQty,
		FilledPrice: f.fillPx,
	}, nil
}

func (f *fakeBroker) ClosePosition(ctx context.Context, symbol string) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}

func (f *fakeBroker) LatestQuote(ctx context.Context, symbol string, class domain.AssetClass) (domain.Quote, error) {
	if f.quoteErr != nil {
		return domain.Quote{}, f.quoteErr
	}
	return domain.Quote{Symbol: symbol, Price: f.quotePx, Timestamp: time.Now()}, nil
}

func (f *fakeBroker) Bars(ctx context.Context, symbol string, class domain.AssetClass, limit int) ([]domain.Bar, error) {
	return nil, nil
}

func (f *fakeBroker) submitted() []domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderRequest(nil), f.orders...)
}

type recordingSink struct {
	mu   sync.Mutex
	recs []domain.TradeRecord
}

func (s *recordingSink) Append(rec domain.TradeRecord) {
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
}

type nopActivity struct{}

func (nopActivity) Record(level domain.ActivityLevel, category, message, symbol string) {}

func newTestEngine(broker *fakeBroker) (*Engine, *book.Book, *book.Ledger, *recordingSink) {
	bk := book.New()
	ledger := book.NewLedger(100000)
	sink := &recordingSink{}
	e := NewEngine(broker, bk, ledger, sink, nopActivity{}, discardLogger())
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e, bk, ledger, sink
}

func buyReq(cycleAt time.Time) Request {
	return Request{
		Symbol:  "AAPL",
		Class:   domain.AssetStock,
		Side:    domain.OrderSideBuy,
		CycleAt: cycleAt,
		Price:   200,
		Sizing:  Sizing{Fraction: 0.05, Cap: 5000},
	}
}

func TestExecuteBuySizesAgainstBuyingPower(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 40000}}
	e, bk, ledger, sink := newTestEngine(broker)

	res, err := e.Execute(context.Background(), buyReq(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, res.Status)

	orders := broker.submitted()
	require.Len(t, orders, 1)
	// 5% of 40000 = 2000, below the 5000 cap.
	assert.InDelta(t, 2000.0, orders[0].Notional, 1e-9)
	assert.Zero(t, orders[0].Qty, "stock buys go by notional")

	pos, ok := bk.Get("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 10.0, pos.Qty, 1e-9) // 2000 / 200
	assert.InDelta(t, 100000-2000, ledger.Balance(), 1e-9)
	require.Len(t, sink.recs, 1)
	assert.Equal(t, domain.OrderSideBuy, sink.recs[0].Action)
}

func TestExecuteBuyCapBindsBeforeFraction(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 1000000}}
	e, _, _, _ := newTestEngine(broker)

	_, err := e.Execute(context.Background(), buyReq(time.Now()))
	require.NoError(t, err)

	orders := broker.submitted()
	require.Len(t, orders, 1)
	assert.InDelta(t, 5000.0, orders[0].Notional, 1e-9)
}

func TestExecuteCryptoBuyGoesByQuantity(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 100000}}
	e, _, _, _ := newTestEngine(broker)

	req := Request{
		Symbol:  "BTC/USD",
		Class:   domain.AssetCrypto,
		Side:    domain.OrderSideBuy,
		CycleAt: time.Now(),
		Price:   50000,
		Sizing:  Sizing{Fraction: 0.02, Cap: 2000},
	}
	_, err := e.Execute(context.Background(), req)
	require.NoError(t, err)

	orders := broker.submitted()
	require.Len(t, orders, 1)
	assert.Zero(t, orders[0].Notional)
	assert.InDelta(t, 2000.0/50000, orders[0].Qty, 1e-9)
}

func TestExecuteBuyBelowMinimumIsNoOp(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 10}}
	e, bk, ledger, _ := newTestEngine(broker)

	res, err := e.Execute(context.Background(), buyReq(time.Now()))
	assert.ErrorIs(t, err, domain.ErrBelowMinNotional)
	assert.Equal(t, domain.OrderStatusSkipped, res.Status)
	assert.Empty(t, broker.submitted(), "nothing must reach the broker")
	assert.Zero(t, bk.Len())
	assert.Equal(t, 100000.0, ledger.Balance())
}

func TestExecuteFallsBackToLedgerWithoutAccount(t *testing.T) {
	broker := &fakeBroker{acctErr: domain.ErrDataUnavailable}
	e, _, _, _ := newTestEngine(broker)

	_, err := e.Execute(context.Background(), buyReq(time.Now()))
	require.NoError(t, err)

	orders := broker.submitted()
	require.Len(t, orders, 1)
	// 5% of the 100000 ledger balance.
	assert.InDelta(t, 5000.0, orders[0].Notional, 1e-9)
}

func TestExecuteSameCycleSubmitsOnce(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 40000}}
	e, _, _, _ := newTestEngine(broker)

	cycle := time.Now()
	_, err := e.Execute(context.Background(), buyReq(cycle))
	require.NoError(t, err)

	res, err := e.Execute(context.Background(), buyReq(cycle))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSkipped, res.Status)
	assert.Len(t, broker.submitted(), 1)

	idk := broker.submitted()[0].IdempotencyKey
	assert.Equal(t, domain.IdempotencyKey("AAPL", domain.OrderSideBuy, cycle), idk)
}

func TestExecuteRetriesTransientThenFills(t *testing.T) {
	broker := &fakeBroker{
		account: domain.Account{BuyingPower: 40000},
		fails:   []error{domain.ErrTransientNetwork, domain.ErrTransientNetwork, nil},
	}
	e, bk, _, _ := newTestEngine(broker)

	var waits []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := e.Execute(context.Background(), buyReq(time.Now()))
	require.NoError(t, err)

	orders := broker.submitted()
	assert.Len(t, orders, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
	for i := 1; i < len(orders); i++ {
		assert.Equal(t, orders[0].IdempotencyKey, orders[i].IdempotencyKey,
			"retries must reuse the idempotency key")
	}
	assert.Equal(t, 1, bk.Len())
}

func TestExecuteTransientExhaustionAbandons(t *testing.T) {
	broker := &fakeBroker{
		account: domain.Account{BuyingPower: 40000},
		fails:   []error{domain.ErrTransientNetwork, domain.ErrTransientNetwork, domain.ErrTransientNetwork},
	}
	e, bk, ledger, sink := newTestEngine(broker)

	_, err := e.Execute(context.Background(), buyReq(time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransientNetwork)
	assert.Len(t, broker.submitted(), 3)
	assert.Zero(t, bk.Len(), "failed order must not touch the book")
	assert.Equal(t, 100000.0, ledger.Balance())
	assert.Empty(t, sink.recs)
}

func TestExecuteTerminalFailureAbandonsImmediately(t *testing.T) {
	broker := &fakeBroker{
		account: domain.Account{BuyingPower: 40000},
		fails:   []error{domain.ErrTerminalBroker},
	}
	e, bk, _, _ := newTestEngine(broker)

	_, err := e.Execute(context.Background(), buyReq(time.Now()))
	assert.ErrorIs(t, err, domain.ErrTerminalBroker)
	assert.Len(t, broker.submitted(), 1, "terminal failures must not be retried")
	assert.Zero(t, bk.Len())
}

func TestExecuteBrokerRejectionDoesNotApplyFill(t *testing.T) {
	// A 2xx submission response can still carry a rejected order.
	broker := &fakeBroker{
		account:  domain.Account{BuyingPower: 40000},
		rejected: true,
	}
	e, bk, ledger, sink := newTestEngine(broker)

	res, err := e.Execute(context.Background(), buyReq(time.Now()))
	assert.ErrorIs(t, err, domain.ErrTerminalBroker)
	assert.Equal(t, domain.OrderStatusFailed, res.Status)

	assert.Zero(t, bk.Len(), "rejected order must not open a position")
	assert.InDelta(t, 100000.0, ledger.Balance(), 1e-9, "rejected order must not move cash")
	assert.Empty(t, sink.recs, "rejected order must not emit a trade record")
}

func TestExecuteSellClosesPositionAndRealizes(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 40000}}
	e, bk, ledger, sink := newTestEngine(broker)
	bk.ApplyBuy("AAPL", domain.AssetStock, 10, 120, time.Now())
	ledger.Debit(1200)

	req := Request{
		Symbol:  "AAPL",
		Class:   domain.AssetStock,
		Side:    domain.OrderSideSell,
		CycleAt: time.Now(),
		Price:   150,
	}
	_, err := e.Execute(context.Background(), req)
	require.NoError(t, err)

	orders := broker.submitted()
	require.Len(t, orders, 1)
	assert.InDelta(t, 10.0, orders[0].Qty, 1e-9, "qty-zero sell closes the full position")

	_, ok := bk.Get("AAPL")
	assert.False(t, ok)
	assert.InDelta(t, 100000-1200+1500, ledger.Balance(), 1e-9)

	require.Len(t, sink.recs, 1)
	assert.InDelta(t, 300.0, sink.recs[0].RealizedPnL, 1e-9)
}

func TestExecuteSellWithoutPositionFails(t *testing.T) {
	broker := &fakeBroker{account: domain.Account{BuyingPower: 40000}}
	e, _, _, _ := newTestEngine(broker)

	req := Request{
		Symbol:  "AAPL",
		Class:   domain.AssetStock,
		Side:    domain.OrderSideSell,
		CycleAt: time.Now(),
		Price:   150,
	}
	_, err := e.Execute(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, broker.submitted())
}

func TestExecuteBooksBrokerFillDetailsWhenPresent(t *testing.T) {
	broker := &fakeBroker{
		account: domain.Account{BuyingPower: 40000},
		fillQty: 9.5,
		fillPx:  201.5,
	}
	e, bk, _, _ := newTestEngine(broker)

	_, err := e.Execute(context.Background(), buyReq(time.Now()))
	require.NoError(t, err)

	pos, ok := bk.Get("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 9.5, pos.Qty, 1e-9)
	assert.InDelta(t, 201.5, pos.EntryPrice, 1e-9)
}

func TestDedupExpiryAllowsReuse(t *testing.T) {
	d := NewDedup(time.Minute)
	current := time.Unix(1000, 0)
	d.now = func() time.Time { return current }

	assert.False(t, d.Seen("k"))
	assert.True(t, d.Seen("k"))

	current = current.Add(2 * time.Minute)
	assert.False(t, d.Seen("k"), "expired keys are usable again")
}

func TestDedupCleanupBoundsMap(t *testing.T) {
	d := NewDedup(time.Minute)
	current := time.Unix(1000, 0)
	d.now = func() time.Time { return current }

	d.Seen("a")
	d.Seen("b")
	current = current.Add(2 * time.Minute)
	d.Seen("c")
	d.Cleanup()

	assert.Len(t, d.seen, 1)
}
