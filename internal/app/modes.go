package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/tallmansamadam/ladybug-trading/internal/blob/s3"
	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/executor"
	"github.com/tallmansamadam/ladybug-trading/internal/history"
	"github.com/tallmansamadam/ladybug-trading/internal/platform/finbert"
	"github.com/tallmansamadam/ladybug-trading/internal/profit"
	"github.com/tallmansamadam/ladybug-trading/internal/scheduler"
	"github.com/tallmansamadam/ladybug-trading/internal/sentiment"
	"github.com/tallmansamadam/ladybug-trading/internal/server"
	"github.com/tallmansamadam/ladybug-trading/internal/server/handler"
	"github.com/tallmansamadam/ladybug-trading/internal/server/ws"
)

// tradeHistoryCap bounds the in-memory fill trail served to the dashboard.
// Older fills live only in the durable store and the S3 archive.
const tradeHistoryCap = 100

// dedupSweepInterval is how often the executor drops expired idempotency keys.
const dedupSweepInterval = 5 * time.Minute

// core holds the engine components shared by both operating modes.
type core struct {
	state       *scheduler.State
	book        *book.Book
	ledger      *book.Ledger
	trades      *history.TradeLog
	portfolio   *history.PortfolioLog
	activity    *history.ActivityLog
	engine      *executor.Engine
	booker      *profit.Booker
	cache       *sentiment.Cache
	watchlist   *sentiment.Watchlist
	refresher   *sentiment.Refresher
	snapshotter *history.Snapshotter
}

// buildCore assembles the position book, execution engine, profit booker,
// sentiment pipeline, and history trails on top of the wired dependencies.
func (a *App) buildCore(deps *Dependencies) (*core, error) {
	mode, err := domain.ParseTradingMode(a.cfg.Trading.Mode)
	if err != nil {
		return nil, fmt.Errorf("build core: %w", err)
	}

	c := &core{
		state:  scheduler.NewState(mode),
		book:   book.New(),
		ledger: book.NewLedger(a.cfg.Trading.InitialCash),
	}

	c.activity = history.NewActivityLog(a.cfg.History.ActivityCapacity, a.logger)
	if deps.Bus != nil {
		c.activity.SetBus(deps.Bus)
	}
	if deps.ActivityStore != nil {
		c.activity.SetStore(deps.ActivityStore)
	}
	c.trades = history.NewTradeLog(tradeHistoryCap)
	c.portfolio = history.NewPortfolioLog(a.cfg.History.SnapshotCapacity)

	c.engine = executor.NewEngine(deps.Broker, c.book, c.ledger, c.trades, c.activity, a.logger)
	if deps.TradeStore != nil {
		c.engine.SetStore(deps.TradeStore)
	}
	if deps.Bus != nil {
		c.engine.SetBus(deps.Bus)
	}
	c.engine.SetNotifier(deps.Notifier)
	c.engine.SetMinOrder(a.cfg.Broker.MinOrderNotional)
	if a.cfg.Broker.MaxRetries > 0 {
		retry := executor.DefaultRetryPolicy()
		retry.MaxAttempts = a.cfg.Broker.MaxRetries
		c.engine.SetRetryPolicy(retry)
	}

	c.booker = profit.NewBooker(c.book, c.engine, deps.Quotes,
		map[domain.AssetClass]float64{
			domain.AssetStock:  a.cfg.Trading.Stock.ProfitTarget,
			domain.AssetCrypto: a.cfg.Trading.Crypto.ProfitTarget,
		},
		c.activity, a.logger,
	)

	c.cache = sentiment.NewCache(a.cfg.Sentiment.TTL.Duration)
	c.watchlist = sentiment.NewWatchlist(a.cfg.Sentiment.Symbols)
	c.refresher = sentiment.NewRefresher(
		c.cache,
		deps.Broker,
		finbert.NewClient(a.cfg.Sentiment.ServiceURL),
		c.watchlist,
		c.activity,
		a.cfg.Sentiment.RefreshInterval.Duration,
		a.cfg.Sentiment.MaxHeadlines,
		a.logger,
	)

	c.snapshotter = history.NewSnapshotter(
		c.book, c.ledger, deps.Broker, c.portfolio,
		a.cfg.History.SnapshotInterval.Duration, a.logger,
	)
	if deps.Bus != nil {
		c.snapshotter.SetBus(deps.Bus)
	}
	if deps.SnapshotStore != nil {
		c.snapshotter.SetStore(deps.SnapshotStore)
	}

	return c, nil
}

// TradeMode runs the full engine: both decision loops, the sentiment
// refresher, the portfolio snapshotter, the optional archiver, and the
// dashboard API.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	c, err := a.buildCore(deps)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	stockLoop := scheduler.NewLoop(
		domain.AssetStock, a.cfg.Trading.Stock, c.state, deps.Broker,
		c.cache, deps.Quotes, c.book, c.engine, c.booker, c.activity, a.logger,
	)
	cryptoLoop := scheduler.NewLoop(
		domain.AssetCrypto, a.cfg.Trading.Crypto, c.state, deps.Broker,
		c.cache, deps.Quotes, c.book, c.engine, c.booker, c.activity, a.logger,
	)

	g.Go(func() error { return c.refresher.Run(ctx) })
	g.Go(func() error { return stockLoop.Run(ctx) })
	g.Go(func() error { return cryptoLoop.Run(ctx) })
	g.Go(func() error { return c.snapshotter.Run(ctx) })

	// Periodically drop expired idempotency keys.
	g.Go(func() error {
		ticker := time.NewTicker(dedupSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				c.engine.Cleanup()
			}
		}
	})

	if deps.BlobWriter != nil && a.cfg.History.ArchiveInterval.Duration > 0 {
		archiver := s3blob.NewArchiver(
			deps.BlobWriter, c.trades, c.portfolio, c.activity,
			a.cfg.S3.Prefix, a.cfg.History.ArchiveInterval.Duration, a.logger,
		)
		g.Go(func() error { return archiver.Run(ctx) })
	}

	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, c)
	}

	c.activity.Record(domain.ActivityInfo, "System", "Trading engine started", "")
	return g.Wait()
}

// ServerMode runs the dashboard API and WebSocket hub without the decision
// loops. Manual booking and the toggles still work; nothing trades on its own.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	c, err := a.buildCore(deps)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// Snapshots keep the dashboard charts moving even without the loops.
	g.Go(func() error { return c.snapshotter.Run(ctx) })

	a.startServer(ctx, g, deps, c)

	return g.Wait()
}

// startServer adds the HTTP server and, when the bus is available, the
// WebSocket hub to the errgroup.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, c *core) {
	startedAt := time.Now().UTC()

	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: startedAt,
		})
		g.Go(func() error { return hub.Run(ctx) })
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Status:    handler.NewStatusHandler(c.state, c.book, c.activity, startedAt),
		Positions: handler.NewPositionHandler(c.book),
		Account:   handler.NewAccountHandler(deps.Broker, c.ledger, c.book),
		History:   handler.NewHistoryHandler(c.trades, c.portfolio, c.activity),
		News:      handler.NewNewsHandler(c.watchlist, c.activity),
		Mode:      handler.NewModeHandler(c.state, c.activity),
		Profit:    handler.NewProfitHandler(c.booker),
		Demo:      handler.NewDemoHandler(c.trades, c.portfolio, c.activity, c.ledger, c.book),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error { return srv.Start() })
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
