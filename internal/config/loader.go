package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LADYBUG_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LADYBUG_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Broker ──
	setStr(&cfg.Broker.TradeHost, "LADYBUG_BROKER_TRADE_HOST")
	setStr(&cfg.Broker.DataHost, "LADYBUG_BROKER_DATA_HOST")
	setStr(&cfg.Broker.APIKey, "LADYBUG_BROKER_API_KEY")
	setStr(&cfg.Broker.APIKey, "ALPACA_API_KEY") // compatibility alias
	setStr(&cfg.Broker.APISecret, "LADYBUG_BROKER_API_SECRET")
	setStr(&cfg.Broker.APISecret, "ALPACA_API_SECRET") // compatibility alias
	setBool(&cfg.Broker.Paper, "LADYBUG_BROKER_PAPER")
	setInt(&cfg.Broker.MaxRetries, "LADYBUG_BROKER_MAX_RETRIES")
	setFloat64(&cfg.Broker.MinOrderNotional, "LADYBUG_BROKER_MIN_ORDER_NOTIONAL")

	// ── Sentiment ──
	setStr(&cfg.Sentiment.ServiceURL, "LADYBUG_SENTIMENT_SERVICE_URL")
	setDuration(&cfg.Sentiment.RefreshInterval, "LADYBUG_SENTIMENT_REFRESH_INTERVAL")
	setDuration(&cfg.Sentiment.TTL, "LADYBUG_SENTIMENT_TTL")
	setInt(&cfg.Sentiment.MaxHeadlines, "LADYBUG_SENTIMENT_MAX_HEADLINES")
	setStringSlice(&cfg.Sentiment.Symbols, "LADYBUG_SENTIMENT_SYMBOLS")

	// ── Trading ──
	setStr(&cfg.Trading.Mode, "LADYBUG_TRADING_MODE")
	setFloat64(&cfg.Trading.InitialCash, "LADYBUG_TRADING_INITIAL_CASH")
	setDuration(&cfg.Trading.Stock.Interval, "LADYBUG_TRADING_STOCK_INTERVAL")
	setFloat64(&cfg.Trading.Stock.BuyThreshold, "LADYBUG_TRADING_STOCK_BUY_THRESHOLD")
	setFloat64(&cfg.Trading.Stock.SellThreshold, "LADYBUG_TRADING_STOCK_SELL_THRESHOLD")
	setFloat64(&cfg.Trading.Stock.SizingFraction, "LADYBUG_TRADING_STOCK_SIZING_FRACTION")
	setFloat64(&cfg.Trading.Stock.SizingCap, "LADYBUG_TRADING_STOCK_SIZING_CAP")
	setFloat64(&cfg.Trading.Stock.ProfitTarget, "LADYBUG_TRADING_STOCK_PROFIT_TARGET")
	setDuration(&cfg.Trading.Crypto.Interval, "LADYBUG_TRADING_CRYPTO_INTERVAL")
	setFloat64(&cfg.Trading.Crypto.BuyThreshold, "LADYBUG_TRADING_CRYPTO_BUY_THRESHOLD")
	setFloat64(&cfg.Trading.Crypto.SellThreshold, "LADYBUG_TRADING_CRYPTO_SELL_THRESHOLD")
	setFloat64(&cfg.Trading.Crypto.SizingFraction, "LADYBUG_TRADING_CRYPTO_SIZING_FRACTION")
	setFloat64(&cfg.Trading.Crypto.SizingCap, "LADYBUG_TRADING_CRYPTO_SIZING_CAP")
	setFloat64(&cfg.Trading.Crypto.ProfitTarget, "LADYBUG_TRADING_CRYPTO_PROFIT_TARGET")

	// ── History ──
	setDuration(&cfg.History.SnapshotInterval, "LADYBUG_HISTORY_SNAPSHOT_INTERVAL")
	setInt(&cfg.History.SnapshotCapacity, "LADYBUG_HISTORY_SNAPSHOT_CAPACITY")
	setInt(&cfg.History.ActivityCapacity, "LADYBUG_HISTORY_ACTIVITY_CAPACITY")
	setDuration(&cfg.History.ArchiveInterval, "LADYBUG_HISTORY_ARCHIVE_INTERVAL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LADYBUG_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "LADYBUG_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LADYBUG_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LADYBUG_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LADYBUG_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LADYBUG_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LADYBUG_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LADYBUG_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LADYBUG_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LADYBUG_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "LADYBUG_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LADYBUG_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LADYBUG_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LADYBUG_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LADYBUG_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LADYBUG_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "LADYBUG_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LADYBUG_S3_REGION")
	setStr(&cfg.S3.Bucket, "LADYBUG_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "LADYBUG_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "LADYBUG_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LADYBUG_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LADYBUG_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LADYBUG_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "LADYBUG_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "LADYBUG_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LADYBUG_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "LADYBUG_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "LADYBUG_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "LADYBUG_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LADYBUG_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LADYBUG_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LADYBUG_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LADYBUG_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LADYBUG_MODE")
	setStr(&cfg.LogLevel, "LADYBUG_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
