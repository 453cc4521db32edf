package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/executor"
	"github.com/tallmansamadam/ladybug-trading/internal/history"
	"github.com/tallmansamadam/ladybug-trading/internal/profit"
	"github.com/tallmansamadam/ladybug-trading/internal/scheduler"
	"github.com/tallmansamadam/ladybug-trading/internal/sentiment"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopActivity struct{}

func (nopActivity) Record(level domain.ActivityLevel, category, message, symbol string) {}

type sellThroughExec struct {
	book *book.Book
}

func (e sellThroughExec) Execute(ctx context.Context, req executor.Request) (domain.OrderResult, error) {
	if req.Side == domain.OrderSideSell {
		_, _, _ = e.book.ApplySell(req.Symbol, req.Qty, req.Price, time.Now())
	}
	return domain.OrderResult{Success: true, Status: domain.OrderStatusFilled}, nil
}

func TestStatusAndToggle(t *testing.T) {
	state := scheduler.NewState(domain.ModeConservative)
	h := NewStatusHandler(state, book.New(), nopActivity{}, time.Now())

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock_enabled":true`)
	assert.Contains(t, rec.Body.String(), `"trading_mode":"conservative"`)

	rec = httptest.NewRecorder()
	h.ToggleStock(rec, httptest.NewRequest(http.MethodPost, "/api/toggle",
		strings.NewReader(`{"enabled":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":false`)
	assert.False(t, state.Enabled(domain.AssetStock))
	assert.True(t, state.Enabled(domain.AssetCrypto), "toggles are class scoped")

	// A retried disable request must stay disabled, not flip back on.
	rec = httptest.NewRecorder()
	h.ToggleStock(rec, httptest.NewRequest(http.MethodPost, "/api/toggle",
		strings.NewReader(`{"enabled":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, state.Enabled(domain.AssetStock))

	// Missing or malformed body is rejected without touching the flag.
	rec = httptest.NewRecorder()
	h.ToggleStock(rec, httptest.NewRequest(http.MethodPost, "/api/toggle", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, state.Enabled(domain.AssetStock))
}

func TestPositionsAreClassScoped(t *testing.T) {
	bk := book.New()
	now := time.Now()
	bk.ApplyBuy("AAPL", domain.AssetStock, 10, 100, now)
	bk.ApplyBuy("BTC/USD", domain.AssetCrypto, 1, 50000, now)
	h := NewPositionHandler(bk)

	rec := httptest.NewRecorder()
	h.ListStocks(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AAPL")
	assert.NotContains(t, rec.Body.String(), "BTC/USD")

	rec = httptest.NewRecorder()
	h.ListCrypto(rec, httptest.NewRequest(http.MethodGet, "/api/positions/crypto", nil))
	assert.Contains(t, rec.Body.String(), "BTC/USD")
}

func TestModeRoundTripAndValidation(t *testing.T) {
	state := scheduler.NewState(domain.ModeConservative)
	h := NewModeHandler(state, nopActivity{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trading-mode", strings.NewReader(`{"mode":"volatile"}`))
	h.SetMode(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ModeVolatile, state.Mode())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/trading-mode", strings.NewReader(`{"mode":"yolo"}`))
	h.SetMode(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ModeVolatile, state.Mode(), "invalid mode must not change state")
}

func TestNewsSymbolsRoundTrip(t *testing.T) {
	wl := sentiment.NewWatchlist([]string{"AAPL"})
	h := NewNewsHandler(wl, nopActivity{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/news/symbols", strings.NewReader(`{"symbols":[" tsla", "BTC/USD", "tsla"]}`))
	h.UpdateSymbols(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"TSLA", "BTC/USD"}, wl.Symbols())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/news/symbols", strings.NewReader(`{"symbols":[]}`))
	h.UpdateSymbols(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookProfitUnknownSymbolIs404(t *testing.T) {
	bk := book.New()
	booker := profit.NewBooker(bk, sellThroughExec{book: bk}, nil,
		map[domain.AssetClass]float64{}, nopActivity{}, discardLogger())
	h := NewProfitHandler(booker)

	req := httptest.NewRequest(http.MethodPost, "/api/book-profit/NOPE", nil)
	req.SetPathValue("symbol", "NOPE")
	rec := httptest.NewRecorder()
	h.BookSymbol(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookAllReportsCounts(t *testing.T) {
	bk := book.New()
	now := time.Now()
	bk.ApplyBuy("AAPL", domain.AssetStock, 10, 100, now)
	bk.ApplyBuy("TSLA", domain.AssetStock, 5, 200, now)
	bk.MarkPrice("AAPL", 110)
	bk.MarkPrice("TSLA", 220)
	booker := profit.NewBooker(bk, sellThroughExec{book: bk}, nil,
		map[domain.AssetClass]float64{}, nopActivity{}, discardLogger())
	h := NewProfitHandler(booker)

	rec := httptest.NewRecorder()
	h.BookAll(rec, httptest.NewRequest(http.MethodPost, "/api/book-all-profits", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"succeeded_count":2,"failed_count":0}`, rec.Body.String())
	assert.Zero(t, bk.Len())
}

func TestHistoryEndpoints(t *testing.T) {
	trades := history.NewTradeLog(100)
	trades.Append(domain.TradeRecord{ID: "t1", Symbol: "AAPL", Action: domain.OrderSideBuy})
	portfolio := history.NewPortfolioLog(100)
	portfolio.Append(domain.NewPortfolioSnapshot(time.Now(), 1000, 500))
	activity := history.NewActivityLog(100, discardLogger())
	activity.Record(domain.ActivityInfo, "Scheduler", "tick", "")

	h := NewHistoryHandler(trades, portfolio, activity)

	rec := httptest.NewRecorder()
	h.ListTradeHistory(rec, httptest.NewRequest(http.MethodGet, "/api/trades/history", nil))
	assert.Contains(t, rec.Body.String(), "AAPL")

	rec = httptest.NewRecorder()
	h.ListPortfolioHistory(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/history", nil))
	assert.Contains(t, rec.Body.String(), `"total_value":1500`)

	rec = httptest.NewRecorder()
	h.ListLogs(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	assert.Contains(t, rec.Body.String(), "Scheduler")
}

func TestDemoGeneratePopulatesTrails(t *testing.T) {
	trades := history.NewTradeLog(100)
	portfolio := history.NewPortfolioLog(100)
	h := NewDemoHandler(trades, portfolio, nopActivity{}, book.NewLedger(100000), book.New())

	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/test/generate", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, 1, trades.Len())
	assert.Equal(t, 1, portfolio.Len())
	snap, ok := portfolio.Latest()
	require.True(t, ok)
	assert.Equal(t, 100000.0, snap.TotalValue)
}
