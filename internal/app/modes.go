package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predarb/internal/server"
	"github.com/alanyoungcy/predarb/internal/server/handler"
)

// OnceMode runs a single detection cycle and returns.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	report, err := deps.Pipeline.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("app: cycle: %w", err)
	}
	a.logger.InfoContext(ctx, "single cycle finished",
		slog.Int("opportunities", report.Opportunities),
		slog.Int("emitted", report.Emitted),
		slog.Int("failures", len(report.Failures)),
	)
	return nil
}

// LoopMode runs the polling loop and, when enabled, the status server and its
// websocket hub, until ctx is cancelled.
func (a *App) LoopMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Pipeline.RunLoop(ctx, a.cfg.Engine.PollInterval.Duration)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return err
}

// startHTTPServer adds the status server, the websocket hub and, when a bus
// channel is configured, the bus relay to the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	venues := make([]string, 0, len(deps.Venues.Adapters))
	for _, ad := range deps.Venues.Adapters {
		venues = append(venues, ad.Venue())
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health: handler.NewHealthHandler(),
		Status: handler.NewStatusHandler(deps.Status, venues, time.Now()),
	}, deps.Hub, a.logger)

	g.Go(func() error {
		return deps.Hub.Run(ctx)
	})

	if deps.Bus != nil && a.cfg.Redis.Channel != "" {
		g.Go(func() error {
			err := deps.Hub.Relay(ctx, deps.Bus, a.cfg.Redis.Channel)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			if err != nil {
				a.logger.Error("bus relay stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
