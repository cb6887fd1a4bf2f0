package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PREDARB_* environment variable overrides, and
// returns the final Config. An empty path or a missing file leaves the
// defaults in place. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PREDARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setDuration(&cfg.Engine.PollInterval, "PREDARB_ENGINE_POLL_INTERVAL")
	setFloat64(&cfg.Engine.ProfitThresholdPct, "PREDARB_ENGINE_PROFIT_THRESHOLD_PCT")
	setFloat64(&cfg.Engine.ProfitThresholdPct, "PREDARB_MIN_PROFIT_THRESHOLD") // compatibility alias
	setStringSlice(&cfg.Engine.AllowedCategories, "PREDARB_ENGINE_ALLOWED_CATEGORIES")
	setStringSlice(&cfg.Engine.AllowedCategories, "PREDARB_ALLOWED_CATEGORIES") // compatibility alias
	setFloat64(&cfg.Engine.SimilarityThreshold, "PREDARB_ENGINE_SIMILARITY_THRESHOLD")
	setDuration(&cfg.Engine.DedupCooldown, "PREDARB_ENGINE_DEDUP_COOLDOWN")
	setStr(&cfg.Engine.DedupBackend, "PREDARB_ENGINE_DEDUP_BACKEND")
	setDuration(&cfg.Engine.AdapterTimeout, "PREDARB_ENGINE_ADAPTER_TIMEOUT")
	setFloat64Slice(&cfg.Engine.RatingBands, "PREDARB_ENGINE_RATING_BANDS")
	setStr(&cfg.Engine.CategoriesFile, "PREDARB_ENGINE_CATEGORIES_FILE")

	// ── Venues ──
	setVenue(&cfg.Polymarket, "PREDARB_POLYMARKET")
	setVenue(&cfg.Kalshi.VenueConfig, "PREDARB_KALSHI")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "PREDARB_KALSHI_RSA_PRIVATE_KEY_PATH")
	setVenue(&cfg.Limitless, "PREDARB_LIMITLESS")
	setVenue(&cfg.Drift, "PREDARB_DRIFT")
	setVenue(&cfg.Opinion, "PREDARB_OPINION")
	setStr(&cfg.Opinion.ApiKey, "OPINION_API_KEY") // key name used by the venue docs
	setVenue(&cfg.Myriad, "PREDARB_MYRIAD")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PREDARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PREDARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PREDARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PREDARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PREDARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PREDARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PREDARB_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "PREDARB_REDIS_KEY_PREFIX")
	setStr(&cfg.Redis.Channel, "PREDARB_REDIS_CHANNEL")

	// ── AMQP ──
	setStr(&cfg.AMQP.URL, "PREDARB_AMQP_URL")
	setStr(&cfg.AMQP.Exchange, "PREDARB_AMQP_EXCHANGE")
	setStr(&cfg.AMQP.RoutingKey, "PREDARB_AMQP_ROUTING_KEY")
	setDuration(&cfg.AMQP.Heartbeat, "PREDARB_AMQP_HEARTBEAT")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "PREDARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PREDARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PREDARB_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PREDARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN") // compatibility alias
	setStr(&cfg.Notify.TelegramChatID, "PREDARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID") // compatibility alias
	setStr(&cfg.Notify.DiscordWebhookURL, "PREDARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PREDARB_NOTIFY_EVENTS")
	setBool(&cfg.Notify.StartupMessage, "PREDARB_NOTIFY_STARTUP_MESSAGE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "PREDARB_LOG_LEVEL")
}

// setVenue applies the <prefix>_ENABLED, _BASE_URL, _API_KEY and _LIMIT
// variables to one venue section.
func setVenue(v *VenueConfig, prefix string) {
	setBool(&v.Enabled, prefix+"_ENABLED")
	setStr(&v.BaseURL, prefix+"_BASE_URL")
	setStr(&v.ApiKey, prefix+"_API_KEY")
	setInt(&v.Limit, prefix+"_LIMIT")
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

func setFloat64Slice(dst *[]float64, key string) {
	if v := os.Getenv(key); v != "" {
		var out []float64
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return
			}
			out = append(out, f)
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
