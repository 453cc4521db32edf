// Package executor sizes, deduplicates, and submits orders, then applies the
// resulting fills to the position book and cash ledger.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// TradeSink receives every fill record, newest last.
type TradeSink interface {
	Append(rec domain.TradeRecord)
}

// ActivityRecorder receives human-readable events for the dashboard trail.
type ActivityRecorder interface {
	Record(level domain.ActivityLevel, category, message, symbol string)
}

// Notifier pushes trade alerts to external channels. Optional.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Sizing caps how much of the account a single buy may commit.
type Sizing struct {
	Fraction float64 // fraction of buying power per order
	Cap      float64 // absolute dollar ceiling per order
}

// Request is one decision to act on. CycleAt is the decision-cycle timestamp
// the idempotency key is derived from; Price is the reference price used for
// sizing and, when the broker omits fill details, for booking. A sell with
// Qty zero closes the whole position.
type Request struct {
	Symbol  string
	Class   domain.AssetClass
	Side    domain.OrderSide
	CycleAt time.Time
	Price   float64
	Qty     float64
	Sizing  Sizing
	Reason  string
}

// RetryPolicy bounds resubmission after transient broker failures.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// DefaultRetryPolicy retries twice after the first attempt, starting at one
// second and doubling up to five.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Initial: time.Second, Max: 5 * time.Second}
}

// Engine submits orders synchronously so callers (the scheduler loops and the
// profit booker) observe the outcome of each attempt. All fills flow through
// the same book and ledger regardless of which caller initiated them.
type Engine struct {
	broker   domain.Broker
	book     *book.Book
	ledger   *book.Ledger
	dedup    *Dedup
	trades   TradeSink
	activity ActivityRecorder
	store    domain.TradeStore
	bus      domain.SignalBus
	notifier Notifier
	retry    RetryPolicy
	minOrder float64
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine wires an Engine. store, bus, and notifier may be nil.
func NewEngine(
	broker domain.Broker,
	bk *book.Book,
	ledger *book.Ledger,
	trades TradeSink,
	activity ActivityRecorder,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		broker:   broker,
		book:     bk,
		ledger:   ledger,
		dedup:    NewDedup(2 * time.Minute),
		trades:   trades,
		activity: activity,
		retry:    DefaultRetryPolicy(),
		minOrder: 1.0,
		logger:   logger.With(slog.String("component", "executor")),
		sleep:    sleepCtx,
	}
}

// SetStore enables durable trade persistence. Best effort; a failed insert is
// logged, never fails the fill.
func (e *Engine) SetStore(store domain.TradeStore) { e.store = store }

// SetBus enables fill fan-out on the trades channel.
func (e *Engine) SetBus(bus domain.SignalBus) { e.bus = bus }

// SetNotifier enables external trade alerts.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

// SetRetryPolicy replaces the transient-failure retry policy.
func (e *Engine) SetRetryPolicy(p RetryPolicy) { e.retry = p }

// SetMinOrder overrides the minimum order notional below which a sized buy is
// skipped.
func (e *Engine) SetMinOrder(v float64) {
	if v > 0 {
		e.minOrder = v
	}
}

// Execute runs one decision end to end: idempotency check, sizing, bounded
// submission, and fill application. The returned error is nil on a fill,
// domain.ErrBelowMinNotional on a sized-to-nothing buy, and the broker error
// (terminal, or transient after retries are exhausted) otherwise.
func (e *Engine) Execute(ctx context.Context, req Request) (domain.OrderResult, error) {
	key := domain.IdempotencyKey(req.Symbol, req.Side, req.CycleAt)
	log := e.logger.With(
		slog.String("symbol", req.Symbol),
		slog.String("side", string(req.Side)),
		slog.String("idempotency_key", key),
	)

	if e.dedup.Seen(key) {
		log.Debug("duplicate decision cycle, skipping")
		return domain.OrderResult{Status: domain.OrderStatusSkipped, Message: "duplicate decision cycle"}, nil
	}

	price := req.Price
	if price <= 0 {
		q, err := e.broker.LatestQuote(ctx, req.Symbol, req.Class)
		if err != nil {
			return domain.OrderResult{Status: domain.OrderStatusFailed}, fmt.Errorf("reference price for %s: %w", req.Symbol, err)
		}
		price = q.Price
	}

	order, err := e.buildOrder(ctx, req, price, key)
	if err != nil {
		if errors.Is(err, domain.ErrBelowMinNotional) {
			log.Info("order below minimum notional, skipping")
			e.activity.Record(domain.ActivityInfo, "Execution",
				fmt.Sprintf("Skipped %s %s: sized below $%.2f minimum", req.Side, req.Symbol, e.minOrder), req.Symbol)
			return domain.OrderResult{Status: domain.OrderStatusSkipped, Message: "below minimum notional"}, err
		}
		return domain.OrderResult{Status: domain.OrderStatusFailed}, err
	}

	result, err := e.submitWithRetry(ctx, order, log)
	if err != nil {
		e.activity.Record(domain.ActivityError, "Execution",
			fmt.Sprintf("Order %s %s failed: %v", req.Side, req.Symbol, err), req.Symbol)
		return result, err
	}

	// A 2xx response can still carry a rejected or canceled order. Nothing
	// filled, so the book and ledger must not move.
	if !result.Success || result.Status == domain.OrderStatusFailed {
		log.Warn("broker rejected order",
			slog.String("order_id", result.OrderID),
			slog.String("status", string(result.Status)),
		)
		e.activity.Record(domain.ActivityError, "Execution",
			fmt.Sprintf("Order %s %s rejected by broker", req.Side, req.Symbol), req.Symbol)
		result.Status = domain.OrderStatusFailed
		return result, fmt.Errorf("order %s %s rejected: %w", req.Side, req.Symbol, domain.ErrTerminalBroker)
	}

	rec := e.applyFill(req, order, result, price)
	e.publishTrade(ctx, rec)
	log.Info("order filled",
		slog.String("order_id", result.OrderID),
		slog.Float64("qty", rec.Quantity),
		slog.Float64("price", rec.Price),
	)
	return result, nil
}

// buildOrder sizes the order. Buys commit min(fraction x buying power, cap)
// dollars, stocks by notional and crypto by quantity. Sells always go by
// quantity taken from the book.
func (e *Engine) buildOrder(ctx context.Context, req Request, price float64, key string) (domain.OrderRequest, error) {
	order := domain.OrderRequest{
		Symbol:         req.Symbol,
		Class:          req.Class,
		Side:           req.Side,
		IdempotencyKey: key,
	}

	if req.Side == domain.OrderSideSell {
		qty := req.Qty
		if qty <= 0 {
			pos, ok := e.book.Get(req.Symbol)
			if !ok {
				return order, fmt.Errorf("sell %s: no open position: %w", req.Symbol, domain.ErrNotFound)
			}
			qty = pos.Qty
		}
		order.Qty = qty
		return order, nil
	}

	bp := e.buyingPower(ctx)
	notional := req.Sizing.Fraction * bp
	if req.Sizing.Cap > 0 && notional > req.Sizing.Cap {
		notional = req.Sizing.Cap
	}
	if notional < e.minOrder {
		return order, fmt.Errorf("buy %s: $%.2f of $%.2f buying power: %w",
			req.Symbol, notional, bp, domain.ErrBelowMinNotional)
	}

	if req.Class == domain.AssetCrypto {
		order.Qty = notional / price
	} else {
		order.Notional = notional
	}
	return order, nil
}

// buyingPower prefers the live broker account and falls back to the local
// ledger when account data is unavailable (paper mode without credentials).
func (e *Engine) buyingPower(ctx context.Context) float64 {
	acct, err := e.broker.Account(ctx)
	if err != nil {
		if !domain.IsDataUnavailable(err) {
			e.logger.Warn("account lookup failed, using local ledger", slog.String("error", err.Error()))
		}
		return e.ledger.Balance()
	}
	return acct.BuyingPower
}

// submitWithRetry resubmits after transient failures with exponential backoff.
// The idempotency key makes resubmission safe. Terminal failures abandon the
// order immediately.
func (e *Engine) submitWithRetry(ctx context.Context, order domain.OrderRequest, log *slog.Logger) (domain.OrderResult, error) {
	backoff := e.retry.Initial
	var lastErr error

	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		result, err := e.broker.SubmitOrder(ctx, order)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !domain.IsTransient(err) {
			log.Warn("terminal order failure, abandoning",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return result, err
		}

		if attempt == e.retry.MaxAttempts {
			break
		}
		log.Warn("transient order failure, backing off",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)
		if err := e.sleep(ctx, backoff); err != nil {
			return domain.OrderResult{Status: domain.OrderStatusFailed}, err
		}
		backoff *= 2
		if backoff > e.retry.Max {
			backoff = e.retry.Max
		}
	}

	return domain.OrderResult{Status: domain.OrderStatusFailed},
		fmt.Errorf("order abandoned after %d attempts: %w", e.retry.MaxAttempts, lastErr)
}

// applyFill mutates the book and ledger and emits the trade record. Broker
// fill details win; the reference price and sized quantity fill the gaps when
// the broker response omits them.
func (e *Engine) applyFill(req Request, order domain.OrderRequest, result domain.OrderResult, refPrice float64) domain.TradeRecord {
	fillPrice := result.FilledPrice
	if fillPrice <= 0 {
		fillPrice = refPrice
	}
	fillQty := result.FilledQty
	if fillQty <= 0 {
		fillQty = order.Qty
		if fillQty <= 0 && fillPrice > 0 {
			fillQty = order.Notional / fillPrice
		}
	}

	now := time.Now().UTC()
	rec := domain.TradeRecord{
		ID:        uuid.New().String(),
		Symbol:    req.Symbol,
		Class:     req.Class,
		Action:    req.Side,
		Quantity:  fillQty,
		Price:     fillPrice,
		Timestamp: now,
	}

	if req.Side == domain.OrderSideBuy {
		e.book.ApplyBuy(req.Symbol, req.Class, fillQty, fillPrice, now)
		e.ledger.Debit(fillQty * fillPrice)
		e.activity.Record(domain.ActivitySuccess, "Execution",
			fmt.Sprintf("Bought %.4f %s @ $%.2f", fillQty, req.Symbol, fillPrice), req.Symbol)
	} else {
		realized, closed, err := e.book.ApplySell(req.Symbol, fillQty, fillPrice, now)
		if err == nil {
			rec.RealizedPnL = realized
		}
		e.ledger.Credit(fillQty * fillPrice)
		msg := fmt.Sprintf("Sold %.4f %s @ $%.2f (P/L $%.2f)", fillQty, req.Symbol, fillPrice, rec.RealizedPnL)
		if closed {
			msg += ", position closed"
		}
		e.activity.Record(domain.ActivitySuccess, "Execution", msg, req.Symbol)
	}

	e.trades.Append(rec)
	return rec
}

// publishTrade fans the fill out to the optional store, bus, and notifier.
// None of these can fail the fill itself.
func (e *Engine) publishTrade(ctx context.Context, rec domain.TradeRecord) {
	if e.store != nil {
		if err := e.store.Insert(ctx, rec); err != nil {
			e.logger.Warn("trade persistence failed", slog.String("error", err.Error()))
		}
	}
	if e.bus != nil {
		if payload, err := json.Marshal(rec); err == nil {
			if err := e.bus.Publish(ctx, domain.ChannelTrades, payload); err != nil {
				e.logger.Warn("trade publish failed", slog.String("error", err.Error()))
			}
		}
	}
	if e.notifier != nil {
		title := fmt.Sprintf("%s %s", rec.Action, rec.Symbol)
		body := fmt.Sprintf("%.4f @ $%.2f", rec.Quantity, rec.Price)
		if rec.Action == domain.OrderSideSell {
			body += fmt.Sprintf(", realized $%.2f", rec.RealizedPnL)
		}
		if err := e.notifier.Notify(ctx, "trade", title, body); err != nil {
			e.logger.Warn("trade notification failed", slog.String("error", err.Error()))
		}
	}
}

// Cleanup drops expired idempotency entries. Run it on a timer.
func (e *Engine) Cleanup() { e.dedup.Cleanup() }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
