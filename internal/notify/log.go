package notify

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// LogSender writes notifications to the structured log. It is the fallback
// when no other channel is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With(slog.String("component", "notify.log"))}
}

// Send logs a plain notification.
func (l *LogSender) Send(ctx context.Context, title, message string) error {
	l.logger.InfoContext(ctx, title, slog.String("message", message))
	return nil
}

// SendOpportunity logs opp with one attribute per field of interest.
func (l *LogSender) SendOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	l.logger.InfoContext(ctx, "arbitrage opportunity",
		slog.String("id", opp.ID),
		slog.String("pair", string(opp.Pair.Key())),
		slog.String("buy_yes_on", opp.BuyYesOn.Key()),
		slog.String("buy_no_on", opp.BuyNoOn.Key()),
		slog.Float64("yes_price", opp.YesPrice),
		slog.Float64("no_price", opp.NoPrice),
		slog.Float64("total_cost", opp.TotalCost),
		slog.Float64("profit_pct", opp.ProfitPct),
		slog.Int("rating", opp.Rating),
		slog.String("question", opp.BuyYesOn.Question),
	)
	return nil
}

// Name returns the sender identifier.
func (l *LogSender) Name() string { return "log" }
