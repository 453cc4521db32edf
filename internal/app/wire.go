package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/tallmansamadam/ladybug-trading/internal/blob/s3"
	"github.com/tallmansamadam/ladybug-trading/internal/cache/redis"
	"github.com/tallmansamadam/ladybug-trading/internal/config"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
	"github.com/tallmansamadam/ladybug-trading/internal/notify"
	"github.com/tallmansamadam/ladybug-trading/internal/platform/alpaca"
	"github.com/tallmansamadam/ladybug-trading/internal/store/postgres"
)

// Dependencies bundles the external collaborators the application modes need:
// the broker, the Redis cache and bus, optional durable stores, optional cold
// storage, and notifications. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Broker implements both domain.Broker and domain.NewsFeed. A client
	// without credentials still constructs; the engine then runs in demo mode.
	Broker *alpaca.Client

	// Redis. Required in trade mode, optional in server mode.
	Quotes      domain.QuoteCache
	Bus         domain.SignalBus
	RateLimiter domain.RateLimiter

	// Durable mirrors, nil when Postgres is not configured.
	TradeStore    domain.TradeStore
	SnapshotStore domain.SnapshotStore
	ActivityStore domain.ActivityStore

	// Cold storage, nil when S3 is not configured.
	BlobWriter *s3blob.Writer

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Broker: alpaca.NewClient(
			cfg.Broker.TradeHost,
			cfg.Broker.DataHost,
			cfg.Broker.APIKey,
			cfg.Broker.APISecret,
		),
	}
	if !deps.Broker.HasCredentials() {
		logger.Warn("no broker credentials configured, running in demo mode")
	}
	logger.Info("broker configured",
		slog.String("trade_host", cfg.Broker.TradeHost),
		slog.Bool("paper", cfg.Broker.Paper),
	)

	// --- Redis: quote cache, event bus, API rate limiter ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			if strings.EqualFold(cfg.Mode, "trade") {
				cleanup()
				return nil, nil, fmt.Errorf("wire: redis: %w", err)
			}
			logger.Warn("redis unavailable, running without cache and event bus",
				slog.String("error", err.Error()),
			)
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
			deps.Quotes = redis.NewQuoteCache(redisClient)
			deps.Bus = redis.NewSignalBus(redisClient)
			deps.RateLimiter = redis.NewRateLimiter(redisClient)
		}
	}

	// --- PostgreSQL durable mirrors ---
	if cfg.PostgresEnabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.TradeStore = postgres.NewTradeStore(pool)
		deps.SnapshotStore = postgres.NewSnapshotStore(pool)
		deps.ActivityStore = postgres.NewActivityStore(pool)
	}

	// --- S3 cold storage ---
	if cfg.S3Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
