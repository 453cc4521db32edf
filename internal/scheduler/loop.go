package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/config"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/executor"
	"github.com/tallmansamadam/ladybug-trading/internal/profit"
	"github.com/tallmansamadam/ladybug-trading/internal/sentiment"
	"github.com/tallmansamadam/ladybug-trading/internal/signal"
)

// barLookback is how many daily bars a tick pulls per symbol, enough for the
// slowest moving average plus headroom.
const barLookback = 100

// OrderExecutor submits one sized decision and reports its outcome.
type OrderExecutor interface {
	Execute(ctx context.Context, req executor.Request) (domain.OrderResult, error)
}

// Sweeper books positions that cleared the class profit target.
type Sweeper interface {
	Sweep(ctx context.Context, class domain.AssetClass) profit.Result
}

// Loop runs the decision cycle for one asset class. Ticks never overlap: the
// cycle body runs inline in the loop goroutine, so a slow cycle simply delays
// the next tick. One symbol failing never stops the rest of the cycle.
type Loop struct {
	class     domain.AssetClass
	cfg       config.LoopConfig
	state     *State
	broker    domain.Broker
	sentiment *sentiment.Cache
	quotes    domain.QuoteCache
	book      *book.Book
	exec      OrderExecutor
	sweeper   Sweeper
	activity  executor.ActivityRecorder
	weights   signal.Weights
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoop wires the decision loop for one asset class. quotes and sweeper may
// be nil.
func NewLoop(
	class domain.AssetClass,
	cfg config.LoopConfig,
	state *State,
	broker domain.Broker,
	sentimentCache *sentiment.Cache,
	quotes domain.QuoteCache,
	bk *book.Book,
	exec OrderExecutor,
	sweeper Sweeper,
	activity executor.ActivityRecorder,
	logger *slog.Logger,
) *Loop {
	return &Loop{
		class:     class,
		cfg:       cfg,
		state:     state,
		broker:    broker,
		sentiment: sentimentCache,
		quotes:    quotes,
		book:      bk,
		exec:      exec,
		sweeper:   sweeper,
		activity:  activity,
		weights:   signal.DefaultWeights(),
		logger:    logger.With(slog.String("component", "scheduler"), slog.String("class", string(class))),
		now:       time.Now,
	}
}

// Run ticks immediately and then on every interval until the context is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("loop started", slog.Duration("interval", l.cfg.Interval.Duration))
	defer l.logger.Info("loop stopped")

	l.Tick(ctx)

	ticker := time.NewTicker(l.cfg.Interval.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick runs one full decision cycle. The enable flag is read once at the
// boundary; disabling mid-cycle never interrupts work already underway.
func (l *Loop) Tick(ctx context.Context) {
	if !l.state.Enabled(l.class) {
		l.logger.Debug("loop disabled, skipping tick")
		return
	}

	cycleAt := l.now()
	symbols := domain.Universe(l.state.Mode(), l.class)
	l.logger.Debug("tick started",
		slog.Int("symbols", len(symbols)),
		slog.String("mode", string(l.state.Mode())),
	)

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if err := l.evaluate(ctx, symbol, cycleAt); err != nil {
			l.logger.Warn("symbol evaluation failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			l.activity.Record(domain.ActivityWarning, "Scheduler",
				fmt.Sprintf("Evaluation of %s failed: %v", symbol, err), symbol)
		}
	}

	if l.sweeper != nil {
		if res := l.sweeper.Sweep(ctx, l.class); res.Succeeded > 0 || res.Failed > 0 {
			l.logger.Info("profit sweep finished",
				slog.Int("succeeded", res.Succeeded),
				slog.Int("failed", res.Failed),
			)
		}
	}
}

// evaluate scores one symbol and acts on the thresholds. Sentiment is blended
// in when the cache has a value for the symbol; a missing entry falls back to
// the technical score alone.
func (l *Loop) evaluate(ctx context.Context, symbol string, cycleAt time.Time) error {
	bars, err := l.broker.Bars(ctx, symbol, l.class, barLookback)
	if err != nil {
		return fmt.Errorf("bars: %w", err)
	}

	price, err := l.refreshPrice(ctx, symbol, bars)
	if err != nil {
		return err
	}

	technical, err := signal.TechnicalScore(bars, l.weights)
	if err != nil {
		return fmt.Errorf("technical score: %w", err)
	}

	var sentimentScore *float64
	if sc, stale, ok := l.sentiment.Get(symbol); ok {
		v := sc.Score
		sentimentScore = &v
		if stale {
			l.logger.Debug("using stale sentiment",
				slog.String("symbol", symbol),
				slog.Time("sampled_at", sc.SampledAt),
			)
		}
	} else {
		l.logger.Debug("no sentiment cached, technical only", slog.String("symbol", symbol))
	}

	val := signal.NewValue(symbol, technical, sentimentScore, cycleAt)
	l.logger.Debug("signal computed",
		slog.String("symbol", symbol),
		slog.Float64("technical", val.Technical),
		slog.Float64("combined", val.Combined),
	)

	switch {
	case val.Combined >= l.cfg.BuyThreshold:
		return l.act(ctx, symbol, domain.OrderSideBuy, cycleAt, price, val.Combined)
	case val.Combined <= l.cfg.SellThreshold:
		if _, ok := l.book.Get(symbol); !ok {
			return nil
		}
		return l.act(ctx, symbol, domain.OrderSideSell, cycleAt, price, val.Combined)
	}
	return nil
}

// refreshPrice pulls the latest quote, falling back to the last bar close,
// then marks the book and the shared quote cache.
func (l *Loop) refreshPrice(ctx context.Context, symbol string, bars []domain.Bar) (float64, error) {
	var price float64
	var ts time.Time

	quote, err := l.broker.LatestQuote(ctx, symbol, l.class)
	if err == nil && quote.Price > 0 {
		price, ts = quote.Price, quote.Timestamp
	} else if len(bars) > 0 {
		last := bars[len(bars)-1]
		price, ts = last.Close, last.Timestamp
	} else {
		return 0, fmt.Errorf("price for %s: %w", symbol, domain.ErrDataUnavailable)
	}

	l.book.MarkPrice(symbol, price)
	if l.quotes != nil {
		if err := l.quotes.SetQuote(ctx, symbol, price, ts); err != nil {
			l.logger.Warn("quote cache write failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	return price, nil
}

// act hands the decision to the executor. A buy sized below the broker
// minimum is a quiet hold, not a failure.
func (l *Loop) act(ctx context.Context, symbol string, side domain.OrderSide, cycleAt time.Time, price, combined float64) error {
	_, err := l.exec.Execute(ctx, executor.Request{
		Symbol:  symbol,
		Class:   l.class,
		Side:    side,
		CycleAt: cycleAt,
		Price:   price,
		Sizing: executor.Sizing{
			Fraction: l.cfg.SizingFraction,
			Cap:      l.cfg.SizingCap,
		},
		Reason: fmt.Sprintf("signal %.3f", combined),
	})
	if err != nil {
		if domain.IsTerminal(err) || domain.IsTransient(err) || domain.IsDataUnavailable(err) {
			return fmt.Errorf("execute %s: %w", side, err)
		}
		// Sized below the minimum or no position to sell.
		l.logger.Debug("decision not executed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
