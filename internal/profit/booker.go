// Package profit sells winners, either on demand from the dashboard or
// automatically once a position clears its class profit target.
package profit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/executor"
)

// OrderExecutor submits one sized decision and reports its outcome.
type OrderExecutor interface {
	Execute(ctx context.Context, req executor.Request) (domain.OrderResult, error)
}

// Result counts the outcome of a multi-position booking pass. One position
// failing never stops the others.
type Result struct {
	Succeeded int `json:"succeeded_count"`
	Failed    int `json:"failed_count"`
}

// Booker closes positions through the executor so booked profits share the
// idempotency, retry, and ledger behavior of every other fill.
type Booker struct {
	book     *book.Book
	exec     OrderExecutor
	quotes   domain.QuoteCache
	targets  map[domain.AssetClass]float64
	activity executor.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewBooker wires a Booker. quotes may be nil; booking then uses the last
// marked price on the position.
func NewBooker(
	bk *book.Book,
	exec OrderExecutor,
	quotes domain.QuoteCache,
	targets map[domain.AssetClass]float64,
	activity executor.ActivityRecorder,
	logger *slog.Logger,
) *Booker {
	return &Booker{
		book:     bk,
		exec:     exec,
		quotes:   quotes,
		targets:  targets,
		activity: activity,
		logger:   logger.With(slog.String("component", "profit_booker")),
		now:      time.Now,
	}
}

// Book closes the full position for symbol at the current price. It does not
// consult the profit target: a manual booking is the operator's call.
func (b *Booker) Book(ctx context.Context, symbol string) error {
	pos, ok := b.book.Get(symbol)
	if !ok {
		return fmt.Errorf("book profit %s: %w", symbol, domain.ErrNotFound)
	}
	return b.close(ctx, pos)
}

// BookAll closes every position currently in profit, each independently, and
// reports how many succeeded and how many failed. Positions at or below
// break-even are left alone.
func (b *Booker) BookAll(ctx context.Context) Result {
	var res Result
	for _, pos := range b.book.Snapshot() {
		pos.CurrentPrice = b.currentPrice(ctx, pos)
		if pos.UnrealizedPnL() <= 0 {
			continue
		}
		if err := b.close(ctx, pos); err != nil {
			b.logger.Warn("book all: position failed",
				slog.String("symbol", pos.Symbol),
				slog.String("error", err.Error()),
			)
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return res
}

// Sweep books every position of the class whose unrealized gain has reached
// the class profit target. Called by the scheduler at the end of each tick.
func (b *Booker) Sweep(ctx context.Context, class domain.AssetClass) Result {
	target, ok := b.targets[class]
	var res Result
	if !ok || target <= 0 {
		return res
	}

	for _, pos := range b.book.SnapshotClass(class) {
		pos.CurrentPrice = b.currentPrice(ctx, pos)
		if pos.UnrealizedPnLPct() < target {
			continue
		}
		b.logger.Info("profit target reached",
			slog.String("symbol", pos.Symbol),
			slog.Float64("pnl_pct", pos.UnrealizedPnLPct()),
			slog.Float64("target", target),
		)
		if err := b.close(ctx, pos); err != nil {
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return res
}

// close sells the whole position through the executor.
func (b *Booker) close(ctx context.Context, pos domain.Position) error {
	price := b.currentPrice(ctx, pos)
	_, err := b.exec.Execute(ctx, executor.Request{
		Symbol:  pos.Symbol,
		Class:   pos.Class,
		Side:    domain.OrderSideSell,
		CycleAt: b.now(),
		Price:   price,
		Qty:     pos.Qty,
		Reason:  "profit booking",
	})
	if err != nil {
		b.activity.Record(domain.ActivityError, "ProfitBooking",
			fmt.Sprintf("Failed to book profit on %s: %v", pos.Symbol, err), pos.Symbol)
		return err
	}
	return nil
}

// currentPrice prefers the shared quote cache and falls back to the last
// marked price on the position.
func (b *Booker) currentPrice(ctx context.Context, pos domain.Position) float64 {
	if b.quotes != nil {
		if price, _, err := b.quotes.GetQuote(ctx, pos.Symbol); err == nil && price > 0 {
			return price
		}
	}
	return pos.CurrentPrice
}
