// Package app provides the top-level application lifecycle management for the
// arbitrage engine. It wires together all dependencies (venue adapters, the
// detection pipeline, dedup storage, notification channels and the status
// server) and runs either a single cycle or the polling loop.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/predarb/internal/config"
)

// Options select how Run behaves.
type Options struct {
	// Once runs a single cycle and returns instead of polling.
	Once bool
}

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	opts    Options
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, runs the startup
// checks and then either one cycle or the polling loop, blocking until the
// context is cancelled. A startup check failure wraps
// domain.ErrNoUsableConfig and happens before any cycle runs.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Bool("once", a.opts.Once),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if a.cfg.Notify.StartupMessage {
		if err := deps.Notifier.NotifyStartup(ctx, startupInfo(a.cfg, deps, a.opts.Once)); err != nil {
			a.logger.WarnContext(ctx, "startup notification failed", slog.String("error", err.Error()))
		}
	}

	if a.opts.Once {
		return a.OnceMode(ctx, deps)
	}
	return a.LoopMode(ctx, deps)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
