// Package config defines the top-level configuration for the trading engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LADYBUG_* environment variables.
type Config struct {
	Broker    BrokerConfig    `toml:"broker"`
	Sentiment SentimentConfig `toml:"sentiment"`
	Trading   TradingConfig   `toml:"trading"`
	History   HistoryConfig   `toml:"history"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// BrokerConfig holds brokerage API endpoints and credentials.
type BrokerConfig struct {
	TradeHost  string `toml:"trade_host"`
	DataHost   string `toml:"data_host"`
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Paper      bool   `toml:"paper"`
	MaxRetries int    `toml:"max_retries"`

	// MinOrderNotional rejects decisions too small to trade as no-ops.
	MinOrderNotional float64 `toml:"min_order_notional"`
}

// SentimentConfig holds the external scorer endpoint and cache policy.
type SentimentConfig struct {
	ServiceURL      string   `toml:"service_url"`
	RefreshInterval duration `toml:"refresh_interval"`
	TTL             duration `toml:"ttl"`
	MaxHeadlines    int      `toml:"max_headlines"`
	Symbols         []string `toml:"symbols"`
}

// LoopConfig holds the per-asset-class scheduling and sizing policy.
type LoopConfig struct {
	Interval      duration `toml:"interval"`
	BuyThreshold  float64  `toml:"buy_threshold"`
	SellThreshold float64  `toml:"sell_threshold"`

	// SizingFraction and SizingCap bound order notional:
	// min(fraction x buying power, cap).
	SizingFraction float64 `toml:"sizing_fraction"`
	SizingCap      float64 `toml:"sizing_cap"`

	// ProfitTarget is the unrealized gain fraction at which the automatic
	// profit sweep closes a position.
	ProfitTarget float64 `toml:"profit_target"`
}

// TradingConfig holds the decision policy for both loops.
type TradingConfig struct {
	Mode   string     `toml:"mode"` // Conservative | Volatile | Hybrid
	Stock  LoopConfig `toml:"stock"`
	Crypto LoopConfig `toml:"crypto"`

	// InitialCash seeds the first portfolio snapshot and backs the demo-mode
	// account when no broker credentials are configured.
	InitialCash float64 `toml:"initial_cash"`
}

// HistoryConfig holds the in-memory ring capacities and snapshot cadence.
type HistoryConfig struct {
	SnapshotInterval duration `toml:"snapshot_interval"`
	SnapshotCapacity int      `toml:"snapshot_capacity"`
	ActivityCapacity int      `toml:"activity_capacity"`

	// ArchiveInterval controls how often trade history and snapshots are
	// written to cold storage. Zero disables archival even when S3 is
	// configured.
	ArchiveInterval duration `toml:"archive_interval"`
}

// PostgresConfig holds PostgreSQL connection parameters. Leave host and DSN
// empty to run without durable persistence.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for history
// archival. Leave the bucket empty to disable archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`

	// RateLimit is the per-client request budget per RateWindow. Zero
	// disables rate limiting.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Broker: BrokerConfig{
			TradeHost:        "https://paper-api.alpaca.markets",
			DataHost:         "https://data.alpaca.markets",
			Paper:            true,
			MaxRetries:       3,
			MinOrderNotional: 1.0,
		},
		Sentiment: SentimentConfig{
			ServiceURL:      "http://localhost:5000",
			RefreshInterval: duration{5 * time.Minute},
			TTL:             duration{15 * time.Minute},
			MaxHeadlines:    25,
			Symbols:         []string{"AAPL", "GOOGL", "BTC/USD", "ETH/USD"},
		},
		Trading: TradingConfig{
			Mode: "Hybrid",
			Stock: LoopConfig{
				Interval:       duration{5 * time.Minute},
				BuyThreshold:   0.15,
				SellThreshold:  -0.15,
				SizingFraction: 0.05,
				SizingCap:      5000,
				ProfitTarget:   0.15,
			},
			Crypto: LoopConfig{
				Interval:       duration{10 * time.Minute},
				BuyThreshold:   0.20,
				SellThreshold:  -0.20,
				SizingFraction: 0.02,
				SizingCap:      2000,
				ProfitTarget:   0.20,
			},
			InitialCash: 100000,
		},
		History: HistoryConfig{
			SnapshotInterval: duration{time.Minute},
			SnapshotCapacity: 100,
			ActivityCapacity: 100,
			ArchiveInterval:  duration{24 * time.Hour},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "ladybug",
			User:          "ladybug",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:         "us-east-1",
			Prefix:         "history",
			UseSSL:         true,
			ForcePathStyle: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        3000,
			CORSOrigins: []string{"http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"trade", "profit", "error"},
		},
		Mode:     "trade",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":  true,
	"server": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validTradingModes enumerates the accepted values for Trading.Mode.
var validTradingModes = map[string]bool{
	"conservative": true,
	"volatile":     true,
	"hybrid":       true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, server)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Broker. Missing credentials are allowed (demo mode), but the endpoints
	// must be present and credentials must come in pairs.
	if c.Broker.TradeHost == "" {
		errs = append(errs, "broker: trade_host must not be empty")
	}
	if c.Broker.DataHost == "" {
		errs = append(errs, "broker: data_host must not be empty")
	}
	hasKey := c.Broker.APIKey != ""
	hasSecret := c.Broker.APISecret != ""
	if hasKey != hasSecret {
		errs = append(errs, "broker: api_key and api_secret must be set together")
	}
	if c.Broker.MinOrderNotional < 0 {
		errs = append(errs, "broker: min_order_notional must be >= 0")
	}

	// Sentiment.
	if c.Sentiment.ServiceURL == "" {
		errs = append(errs, "sentiment: service_url must not be empty")
	}
	if c.Sentiment.RefreshInterval.Duration <= 0 {
		errs = append(errs, "sentiment: refresh_interval must be positive")
	}
	if c.Sentiment.TTL.Duration <= 0 {
		errs = append(errs, "sentiment: ttl must be positive")
	}
	if c.Sentiment.MaxHeadlines < 1 {
		errs = append(errs, "sentiment: max_headlines must be >= 1")
	}

	// Trading policy.
	if !validTradingModes[strings.ToLower(c.Trading.Mode)] {
		errs = append(errs, fmt.Sprintf("trading: unknown mode %q (valid: Conservative, Volatile, Hybrid)", c.Trading.Mode))
	}
	if c.Trading.InitialCash <= 0 {
		errs = append(errs, "trading: initial_cash must be > 0")
	}
	for name, loop := range map[string]LoopConfig{"stock": c.Trading.Stock, "crypto": c.Trading.Crypto} {
		if loop.Interval.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("trading.%s: interval must be positive", name))
		}
		if loop.BuyThreshold <= 0 || loop.BuyThreshold > 1 {
			errs = append(errs, fmt.Sprintf("trading.%s: buy_threshold must be in (0, 1]", name))
		}
		if loop.SellThreshold >= 0 || loop.SellThreshold < -1 {
			errs = append(errs, fmt.Sprintf("trading.%s: sell_threshold must be in [-1, 0)", name))
		}
		if loop.SizingFraction <= 0 || loop.SizingFraction > 1 {
			errs = append(errs, fmt.Sprintf("trading.%s: sizing_fraction must be in (0, 1]", name))
		}
		if loop.SizingCap <= 0 {
			errs = append(errs, fmt.Sprintf("trading.%s: sizing_cap must be > 0", name))
		}
		if loop.ProfitTarget <= 0 {
			errs = append(errs, fmt.Sprintf("trading.%s: profit_target must be > 0", name))
		}
	}

	// History.
	if c.History.SnapshotInterval.Duration <= 0 {
		errs = append(errs, "history: snapshot_interval must be positive")
	}
	if c.History.SnapshotCapacity < 1 {
		errs = append(errs, "history: snapshot_capacity must be >= 1")
	}
	if c.History.ActivityCapacity < 1 {
		errs = append(errs, "history: activity_capacity must be >= 1")
	}

	// Postgres is optional; when pointed at a server the pool must be sane.
	if c.PostgresEnabled() {
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis backs the quote cache and the event bus in trade mode.
	if strings.ToLower(c.Mode) == "trade" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty in trade mode")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 is optional; when a bucket is set, the region must be too.
	if c.S3Enabled() && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when bucket is set")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// PostgresEnabled reports whether durable persistence is configured.
func (c *Config) PostgresEnabled() bool {
	return strings.TrimSpace(c.Postgres.DSN) != "" || c.Postgres.Host != ""
}

// S3Enabled reports whether cold-storage archival is configured.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != ""
}

// HasBrokerCredentials reports whether real broker credentials are present.
// Without them the engine runs in demo mode.
func (c *Config) HasBrokerCredentials() bool {
	return c.Broker.APIKey != "" && c.Broker.APISecret != ""
}
