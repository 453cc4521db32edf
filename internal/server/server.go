// Package server exposes the dashboard HTTP and WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/server/handler"
	"github.com/tallmansamadam/ladybug-trading/internal/server/middleware"
	"github.com/tallmansamadam/ladybug-trading/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit is the per-client request budget per RateWindow. Zero
	// disables rate limiting even when a limiter is provided.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Positions *handler.PositionHandler
	Account   *handler.AccountHandler
	History   *handler.HistoryHandler
	News      *handler.NewsHandler
	Mode      *handler.ModeHandler
	Profit    *handler.ProfitHandler
	Demo      *handler.DemoHandler
}

// Server is the headless HTTP + WebSocket API for the trading engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (rate limiting, auth, logging, CORS) wired. limiter
// may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Engine status and toggles.
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("POST /api/toggle", handlers.Status.ToggleStock)
	mux.HandleFunc("POST /api/toggle/crypto", handlers.Status.ToggleCrypto)

	// Positions and account.
	mux.HandleFunc("GET /api/positions", handlers.Positions.ListStocks)
	mux.HandleFunc("GET /api/positions/crypto", handlers.Positions.ListCrypto)
	mux.HandleFunc("GET /api/account", handlers.Account.GetAccount)

	// History trails.
	mux.HandleFunc("GET /api/logs", handlers.History.ListLogs)
	mux.HandleFunc("GET /api/portfolio/history", handlers.History.ListPortfolioHistory)
	mux.HandleFunc("GET /api/trades/history", handlers.History.ListTradeHistory)

	// Sentiment watchlist.
	mux.HandleFunc("GET /api/news/symbols", handlers.News.GetSymbols)
	mux.HandleFunc("POST /api/news/symbols", handlers.News.UpdateSymbols)

	// Trading mode.
	mux.HandleFunc("GET /api/trading-mode", handlers.Mode.GetMode)
	mux.HandleFunc("POST /api/trading-mode", handlers.Mode.SetMode)

	// Profit booking.
	mux.HandleFunc("POST /api/book-profit/{symbol}", handlers.Profit.BookSymbol)
	mux.HandleFunc("POST /api/book-all-profits", handlers.Profit.BookAll)

	// Demo data for exercising the dashboard without a broker.
	if handlers.Demo != nil {
		mux.HandleFunc("POST /api/test/generate", handlers.Demo.Generate)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	h = middleware.Auth(cfg.APIKey)(h)

	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}

	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
