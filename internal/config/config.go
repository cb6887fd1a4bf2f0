// Package config defines the top-level configuration for the arbitrage scanner
// and provides validation helpers.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PREDARB_* environment variables.
type Config struct {
	Engine     EngineConfig `toml:"engine"`
	Polymarket VenueConfig  `toml:"polymarket"`
	Kalshi     KalshiConfig `toml:"kalshi"`
	Limitless  VenueConfig  `toml:"limitless"`
	Drift      VenueConfig  `toml:"drift"`
	Opinion    VenueConfig  `toml:"opinion"`
	Myriad     VenueConfig  `toml:"myriad"`
	Redis      RedisConfig  `toml:"redis"`
	AMQP       AMQPConfig   `toml:"amqp"`
	Server     ServerConfig `toml:"server"`
	Notify     NotifyConfig `toml:"notify"`
	LogLevel   string       `toml:"log_level"`
}

// EngineConfig is the configuration surface of the matching and evaluation
// pipeline.
type EngineConfig struct {
	PollInterval        duration  `toml:"poll_interval"`
	ProfitThresholdPct  float64   `toml:"profit_threshold_pct"`
	AllowedCategories   []string  `toml:"allowed_categories"`
	SimilarityThreshold float64   `toml:"similarity_threshold"`
	DedupCooldown       duration  `toml:"dedup_cooldown"`
	DedupBackend        string    `toml:"dedup_backend"` // "memory" or "redis"
	AdapterTimeout      duration  `toml:"adapter_timeout"`
	RatingBands         []float64 `toml:"rating_bands"`
	CategoriesFile      string    `toml:"categories_file"` // empty = built-in table
}

// VenueConfig holds the settings shared by every venue adapter.
type VenueConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Limit   int    `toml:"limit"`
}

// KalshiConfig holds Kalshi API credentials. Signing is optional for the
// public market listing.
type KalshiConfig struct {
	VenueConfig
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
	Channel    string `toml:"channel"` // pub/sub channel for opportunities, empty disables
}

// AMQPConfig holds the broker used to publish opportunities.
type AMQPConfig struct {
	URL        string   `toml:"url"` // empty disables the publisher
	Exchange   string   `toml:"exchange"`
	RoutingKey string   `toml:"routing_key"`
	Heartbeat  duration `toml:"heartbeat"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
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

// ServerConfig holds status server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	StartupMessage    bool     `toml:"startup_message"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			PollInterval:        duration{30 * time.Second},
			ProfitThresholdPct:  0.1,
			AllowedCategories:   []string{"sports", "crypto"},
			SimilarityThreshold: 0.85,
			DedupCooldown:       duration{30 * time.Minute},
			DedupBackend:        "memory",
			AdapterTimeout:      duration{15 * time.Second},
			RatingBands:         []float64{0.5, 1, 2, 5},
		},
		Polymarket: VenueConfig{
			Enabled: true,
			BaseURL: "https://gamma-api.polymarket.com",
			Limit:   50,
		},
		Kalshi: KalshiConfig{
			VenueConfig: VenueConfig{
				Enabled: true,
				BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
				Limit:   100,
			},
		},
		Limitless: VenueConfig{
			Enabled: true,
			BaseURL: "https://api.limitless.exchange",
			Limit:   25,
		},
		Drift: VenueConfig{
			Enabled: true,
			BaseURL: "https://data.api.drift.trade",
		},
		Opinion: VenueConfig{
			Enabled: true,
			BaseURL: "https://openapi.opinion.trade/openapi",
			Limit:   20,
		},
		Myriad: VenueConfig{
			Enabled: false,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "predarb:",
		},
		AMQP: AMQPConfig{
			Exchange:   "predarb.opportunities",
			RoutingKey: "opportunity",
			Heartbeat:  duration{10 * time.Second},
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Notify: NotifyConfig{
			Events:         []string{"opportunity", "startup"},
			StartupMessage: true,
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validDedupBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine
	e := c.Engine
	if e.PollInterval.Duration <= 0 {
		errs = append(errs, "engine: poll_interval must be > 0")
	}
	if e.ProfitThresholdPct < 0 || e.ProfitThresholdPct >= 100 {
		errs = append(errs, fmt.Sprintf("engine: profit_threshold_pct must be in [0,100), got %v", e.ProfitThresholdPct))
	}
	if e.SimilarityThreshold <= 0 || e.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("engine: similarity_threshold must be in (0,1], got %v", e.SimilarityThreshold))
	}
	if e.DedupCooldown.Duration <= 0 {
		errs = append(errs, "engine: dedup_cooldown must be > 0")
	}
	if e.AdapterTimeout.Duration <= 0 {
		errs = append(errs, "engine: adapter_timeout must be > 0")
	}
	if !validDedupBackends[strings.ToLower(e.DedupBackend)] {
		errs = append(errs, fmt.Sprintf("engine: unknown dedup_backend %q (valid: memory, redis)", e.DedupBackend))
	}
	if strings.EqualFold(e.DedupBackend, "redis") && !c.Redis.Enabled {
		errs = append(errs, "engine: dedup_backend redis requires redis.enabled")
	}
	if !sort.Float64sAreSorted(e.RatingBands) {
		errs = append(errs, "engine: rating_bands must be ascending")
	}

	// Venues
	venues := []struct {
		name string
		v    VenueConfig
	}{
		{"polymarket", c.Polymarket},
		{"kalshi", c.Kalshi.VenueConfig},
		{"limitless", c.Limitless},
		{"drift", c.Drift},
		{"opinion", c.Opinion},
	}
	for _, vc := range venues {
		if !vc.v.Enabled {
			continue
		}
		if vc.v.BaseURL == "" {
			errs = append(errs, vc.name+": base_url must not be empty when enabled")
		}
		if vc.v.Limit < 0 {
			errs = append(errs, vc.name+": limit must be >= 0")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
