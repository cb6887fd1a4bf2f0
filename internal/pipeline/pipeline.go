// Package pipeline runs detection cycles: aggregate, classify, match,
// evaluate, deduplicate and notify.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/predarb/internal/aggregator"
	"github.com/alanyoungcy/predarb/internal/arbitrage"
	"github.com/alanyoungcy/predarb/internal/category"
	"github.com/alanyoungcy/predarb/internal/dedup"
	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/matcher"
)

// Collector produces one snapshot of market records.
type Collector interface {
	Collect(ctx context.Context) (aggregator.Snapshot, error)
}

// Notifier delivers one emitted opportunity.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error
}

// CycleReport summarizes one detection cycle.
type CycleReport struct {
	Started       time.Time              `json:"started"`
	Duration      time.Duration          `json:"duration"`
	Records       int                    `json:"records"`
	PerVenue      map[string]int         `json:"per_venue"`
	Failures      []aggregator.Failure   `json:"failures"`
	Skipped       []domain.DisabledVenue `json:"skipped"`
	Dropped       int                    `json:"dropped"`
	Classified    int                    `json:"classified"`
	Pairs         int                    `json:"pairs"`
	Opportunities int                    `json:"opportunities"`
	Emitted       int                    `json:"emitted"`
	NotifyErrors  int                    `json:"notify_errors"`
}

// Observer receives the report and the emitted opportunities after every
// completed cycle.
type Observer func(report CycleReport, emitted []domain.ArbitrageOpportunity)

// Pipeline wires the detection stages together.
type Pipeline struct {
	collector  Collector
	classifier *category.Classifier
	allowed    []string
	matcher    *matcher.Matcher
	evaluator  *arbitrage.Evaluator
	dedup      *dedup.Deduplicator
	notifier   Notifier
	observers  []Observer
	logger     *slog.Logger
}

// Stages holds the collaborators of a Pipeline.
type Stages struct {
	Collector  Collector
	Classifier *category.Classifier
	Allowed    []string
	Matcher    *matcher.Matcher
	Evaluator  *arbitrage.Evaluator
	Dedup      *dedup.Deduplicator
	Notifier   Notifier
}

// New creates a Pipeline.
func New(s Stages, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		collector:  s.Collector,
		classifier: s.Classifier,
		allowed:    s.Allowed,
		matcher:    s.Matcher,
		evaluator:  s.Evaluator,
		dedup:      s.Dedup,
		notifier:   s.Notifier,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// OnCycle registers an observer called after every completed cycle.
func (p *Pipeline) OnCycle(o Observer) {
	p.observers = append(p.observers, o)
}

// RunCycle performs one full detection cycle. If ctx is cancelled after
// aggregation the partial results are discarded: nothing is written to the
// dedup store and nothing is notified.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{Started: time.Now().UTC()}

	snap, err := p.collector.Collect(ctx)
	if err != nil {
		return report, err
	}
	report.Records = len(snap.Records)
	report.PerVenue = snap.PerVenue
	report.Failures = snap.Failures
	report.Skipped = snap.Skipped
	report.Dropped = snap.Dropped

	byCategory := p.classifier.Partition(snap.Records, p.allowed)
	for _, recs := range byCategory {
		report.Classified += len(recs)
	}

	pairs := p.matcher.Match(byCategory)
	report.Pairs = len(pairs)

	opps := p.evaluator.Evaluate(pairs)
	report.Opportunities = len(opps)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	emitted := p.dedup.Filter(ctx, opps)
	report.Emitted = len(emitted)

	for _, opp := range emitted {
		if err := p.notifier.NotifyOpportunity(ctx, opp); err != nil {
			report.NotifyErrors++
			p.logger.ErrorContext(ctx, "notify failed",
				slog.String("opportunity", opp.DedupKey()),
				slog.String("error", err.Error()),
			)
		}
	}

	report.Duration = time.Since(report.Started)
	p.logger.InfoContext(ctx, "cycle complete",
		slog.Int("records", report.Records),
		slog.Int("failures", len(report.Failures)),
		slog.Int("classified", report.Classified),
		slog.Int("pairs", report.Pairs),
		slog.Int("opportunities", report.Opportunities),
		slog.Int("emitted", report.Emitted),
		slog.Duration("duration", report.Duration),
	)

	for _, o := range p.observers {
		o(report, emitted)
	}
	return report, nil
}

// RunLoop runs a cycle immediately and then once per interval until ctx is
// cancelled. A failed cycle is logged and the loop continues. Cycles never
// overlap.
func (p *Pipeline) RunLoop(ctx context.Context, interval time.Duration) error {
	p.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline loop stopped")
			return ctx.Err()
		case <-ticker.C:
			p.runLogged(ctx)
		}
	}
}

func (p *Pipeline) runLogged(ctx context.Context) {
	if _, err := p.RunCycle(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("cycle failed", slog.String("error", err.Error()))
	}
}
