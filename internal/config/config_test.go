package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Minute, cfg.Trading.Stock.Interval.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Trading.Crypto.Interval.Duration)
	assert.Equal(t, 0.15, cfg.Trading.Stock.BuyThreshold)
	assert.Equal(t, -0.20, cfg.Trading.Crypto.SellThreshold)
	assert.Equal(t, 5000.0, cfg.Trading.Stock.SizingCap)
	assert.Equal(t, 0.02, cfg.Trading.Crypto.SizingFraction)
	assert.False(t, cfg.PostgresEnabled())
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.HasBrokerCredentials())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "server"
log_level = "debug"

[trading]
mode = "volatile"

[trading.stock]
interval = "90s"
buy_threshold = 0.25

[server]
port = 8080
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "volatile", cfg.Trading.Mode)
	assert.Equal(t, 90*time.Second, cfg.Trading.Stock.Interval.Duration)
	assert.Equal(t, 0.25, cfg.Trading.Stock.BuyThreshold)
	assert.Equal(t, 8080, cfg.Server.Port)

	// Untouched sections keep their defaults.
	assert.Equal(t, 10*time.Minute, cfg.Trading.Crypto.Interval.Duration)
	assert.Equal(t, 2000.0, cfg.Trading.Crypto.SizingCap)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[broker]
api_key = "file-key"
api_secret = "file-secret"
`), 0o600))

	t.Setenv("LADYBUG_BROKER_API_KEY", "env-key")
	t.Setenv("LADYBUG_TRADING_CRYPTO_SIZING_CAP", "750")
	t.Setenv("LADYBUG_SENTIMENT_REFRESH_INTERVAL", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Broker.APIKey)
	assert.Equal(t, "file-secret", cfg.Broker.APISecret)
	assert.Equal(t, 750.0, cfg.Trading.Crypto.SizingCap)
	assert.Equal(t, 2*time.Minute, cfg.Sentiment.RefreshInterval.Duration)
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "backtest" }},
		{"unknown trading mode", func(c *Config) { c.Trading.Mode = "yolo" }},
		{"buy threshold above one", func(c *Config) { c.Trading.Stock.BuyThreshold = 1.5 }},
		{"positive sell threshold", func(c *Config) { c.Trading.Crypto.SellThreshold = 0.2 }},
		{"zero sizing cap", func(c *Config) { c.Trading.Stock.SizingCap = 0 }},
		{"zero initial cash", func(c *Config) { c.Trading.InitialCash = 0 }},
		{"api key without secret", func(c *Config) { c.Broker.APIKey = "k"; c.Broker.APISecret = "" }},
		{"redis addr missing in trade mode", func(c *Config) { c.Redis.Addr = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Broker.APISecret = "super-secret"
	cfg.Redis.Password = "hunter2"
	cfg.Server.APIKey = "dashboard-key"

	red := RedactedConfig(&cfg)

	assert.NotContains(t, red.Broker.APISecret, "super-secret")
	assert.NotContains(t, red.Redis.Password, "hunter2")
	assert.NotContains(t, red.Server.APIKey, "dashboard-key")

	// The original is untouched.
	assert.Equal(t, "super-secret", cfg.Broker.APISecret)
}
