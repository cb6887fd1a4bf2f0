package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alanyoungcy/predarb/internal/aggregator"
	"github.com/alanyoungcy/predarb/internal/arbitrage"
	"github.com/alanyoungcy/predarb/internal/cache/redis"
	"github.com/alanyoungcy/predarb/internal/category"
	"github.com/alanyoungcy/predarb/internal/config"
	"github.com/alanyoungcy/predarb/internal/dedup"
	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/matcher"
	"github.com/alanyoungcy/predarb/internal/notify"
	"github.com/alanyoungcy/predarb/internal/pipeline"
	"github.com/alanyoungcy/predarb/internal/platform/drift"
	"github.com/alanyoungcy/predarb/internal/platform/httpx"
	"github.com/alanyoungcy/predarb/internal/platform/kalshi"
	"github.com/alanyoungcy/predarb/internal/platform/limitless"
	"github.com/alanyoungcy/predarb/internal/platform/opinion"
	"github.com/alanyoungcy/predarb/internal/platform/polymarket"
	"github.com/alanyoungcy/predarb/internal/server/ws"
)

const myriadVenueID = "myriad"

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Venues     domain.VenueSet
	Categories []string
	Pipeline   *pipeline.Pipeline
	Status     *pipeline.Status
	Notifier   *notify.Notifier

	// Optional; nil when not configured.
	Hub   *ws.Hub
	Bus   domain.OpportunityBus
	Redis *redis.Client
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources. It fails with
// domain.ErrNoUsableConfig when no venue or no category can be used.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{Status: pipeline.NewStatus()}

	// --- Venues ---
	hc := httpx.New(
		httpx.WithTimeout(cfg.Engine.AdapterTimeout.Duration),
		httpx.WithLogger(logger),
	)
	venues, err := BuildVenues(cfg, hc, logger)
	if err != nil {
		return fail(fmt.Errorf("wire: venues: %w", err))
	}
	deps.Venues = venues

	// --- Categories ---
	table, err := config.LoadCategories(cfg.Engine.CategoriesFile)
	if err != nil {
		return fail(fmt.Errorf("wire: categories: %w", err))
	}
	allowed, err := checkStartup(venues, table, cfg.Engine.AllowedCategories, logger)
	if err != nil {
		return fail(err)
	}
	deps.Categories = allowed

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = rc.Close() })
		deps.Redis = rc
		deps.Bus = redis.NewOpportunityBus(rc)
	}

	var store domain.DedupStore = dedup.NewMemoryStore()
	if strings.EqualFold(cfg.Engine.DedupBackend, "redis") {
		if deps.Redis == nil {
			return fail(fmt.Errorf("wire: dedup_backend redis requires redis.enabled"))
		}
		store = redis.NewDedupStore(deps.Redis)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			return fail(fmt.Errorf("wire: %w", err))
		}
		senders = append(senders, tg)
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if deps.Bus != nil && cfg.Redis.Channel != "" {
		senders = append(senders, notify.NewBusSender(deps.Bus, cfg.Redis.Channel))
	}
	if cfg.AMQP.URL != "" {
		pub, err := notify.NewAMQPSender(notify.AMQPConfig{
			URL:        cfg.AMQP.URL,
			Exchange:   cfg.AMQP.Exchange,
			RoutingKey: cfg.AMQP.RoutingKey,
			Heartbeat:  cfg.AMQP.Heartbeat.Duration,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: %w", err))
		}
		closers = append(closers, func() { _ = pub.Close() })
		senders = append(senders, pub)
	}
	if cfg.Server.Enabled {
		deps.Hub = ws.NewHub(logger)
		// With a bus channel the hub relays from the bus instead, so
		// opportunities from every instance reach the stream once.
		if deps.Bus == nil || cfg.Redis.Channel == "" {
			senders = append(senders, deps.Hub)
		}
	}
	if len(senders) == 0 {
		logger.Warn("no notification channel configured; opportunities are only logged")
		senders = append(senders, notify.NewLogSender(logger))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Pipeline ---
	deps.Pipeline = pipeline.New(pipeline.Stages{
		Collector:  aggregator.New(venues, cfg.Engine.AdapterTimeout.Duration, logger),
		Classifier: category.New(table),
		Allowed:    allowed,
		Matcher:    matcher.New(cfg.Engine.SimilarityThreshold),
		Evaluator: arbitrage.New(arbitrage.Config{
			ThresholdPct: cfg.Engine.ProfitThresholdPct,
			RatingBands:  cfg.Engine.RatingBands,
		}),
		Dedup:    dedup.New(store, cfg.Engine.DedupCooldown.Duration, logger),
		Notifier: deps.Notifier,
	}, logger)
	deps.Pipeline.OnCycle(deps.Status.Observe)
	if deps.Hub != nil {
		deps.Pipeline.OnCycle(deps.Hub.ObserveCycle)
	}

	return deps, cleanup, nil
}

// BuildVenues creates an adapter for every enabled venue. Venues that are
// disabled, lack credentials or have no public API are returned in
// VenueSet.Disabled and never attempted.
func BuildVenues(cfg *config.Config, hc *httpx.Client, logger *slog.Logger) (domain.VenueSet, error) {
	var set domain.VenueSet
	disable := func(id, reason string) {
		set.Disabled = append(set.Disabled, domain.DisabledVenue{ID: id, Reason: reason})
	}

	if cfg.Polymarket.Enabled {
		set.Adapters = append(set.Adapters, polymarket.NewGammaClient(cfg.Polymarket.BaseURL, cfg.Polymarket.Limit, hc, logger))
	} else {
		disable(polymarket.VenueID, "disabled in config")
	}

	if cfg.Kalshi.Enabled {
		k := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey, cfg.Kalshi.Limit, hc, logger)
		if path := cfg.Kalshi.RsaPrivateKeyPath; path != "" {
			pemBytes, err := os.ReadFile(path)
			if err != nil {
				return set, fmt.Errorf("kalshi: read private key: %w", err)
			}
			if err := k.SetRSAPrivateKey(pemBytes); err != nil {
				return set, err
			}
		}
		set.Adapters = append(set.Adapters, k)
	} else {
		disable(kalshi.VenueID, "disabled in config")
	}

	if cfg.Limitless.Enabled {
		set.Adapters = append(set.Adapters, limitless.NewClient(cfg.Limitless.BaseURL, cfg.Limitless.Limit, hc, logger))
	} else {
		disable(limitless.VenueID, "disabled in config")
	}

	if cfg.Drift.Enabled {
		set.Adapters = append(set.Adapters, drift.NewClient(cfg.Drift.BaseURL, hc, logger))
	} else {
		disable(drift.VenueID, "disabled in config")
	}

	switch {
	case !cfg.Opinion.Enabled:
		disable(opinion.VenueID, "disabled in config")
	case cfg.Opinion.ApiKey == "":
		disable(opinion.VenueID, "no API key")
	default:
		set.Adapters = append(set.Adapters, opinion.NewClient(cfg.Opinion.BaseURL, cfg.Opinion.ApiKey, cfg.Opinion.Limit, hc, logger))
	}

	// Myriad settles on-chain and has no public listing API.
	if cfg.Myriad.Enabled {
		disable(myriadVenueID, "no public API")
	} else {
		disable(myriadVenueID, "disabled in config")
	}

	for _, d := range set.Disabled {
		logger.Info("venue skipped", slog.String("venue", d.ID), slog.String("reason", d.Reason))
	}
	return set, nil
}

// checkStartup returns the allowed categories present in the keyword table.
// It fails when no adapter can be attempted or none of the allowed categories
// exists.
func checkStartup(venues domain.VenueSet, table category.Table, allowed []string, logger *slog.Logger) ([]string, error) {
	if !venues.Usable() {
		return nil, fmt.Errorf("%w: every venue adapter is disabled", domain.ErrNoUsableConfig)
	}

	var valid []string
	for _, c := range allowed {
		if table.Has(c) {
			valid = append(valid, c)
			continue
		}
		logger.Warn("allowed category has no keyword entry", slog.String("category", c))
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: none of the allowed categories %v is defined (known: %v)",
			domain.ErrNoUsableConfig, allowed, table.Names())
	}
	return valid, nil
}

// startupInfo describes the wired configuration for the startup message.
func startupInfo(cfg *config.Config, deps *Dependencies, once bool) notify.StartupInfo {
	info := notify.StartupInfo{
		Categories:   deps.Categories,
		PollInterval: cfg.Engine.PollInterval.Duration,
		ThresholdPct: cfg.Engine.ProfitThresholdPct,
		Once:         once,
	}
	for _, a := range deps.Venues.Adapters {
		info.Venues = append(info.Venues, a.Venue())
	}
	for _, d := range deps.Venues.Disabled {
		info.Skipped = append(info.Skipped, d.ID+" ("+d.Reason+")")
	}
	return info
}

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second
