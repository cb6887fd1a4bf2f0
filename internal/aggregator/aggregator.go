// Package aggregator fans out to every configured venue adapter and assembles
// one snapshot of market records per polling cycle.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// Failure records why one adapter contributed nothing to a snapshot.
type Failure struct {
	Venue  string `json:"venue_id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Snapshot is the union of records from the adapters that succeeded.
type Snapshot struct {
	Records     []domain.MarketRecord  `json:"-"`
	Failures    []Failure              `json:"failures"`
	Skipped     []domain.DisabledVenue `json:"skipped"`
	Dropped     int                    `json:"dropped"`
	PerVenue    map[string]int         `json:"per_venue"`
	CollectedAt time.Time              `json:"collected_at"`
	Duration    time.Duration          `json:"duration"`
}

// Aggregator collects records from adapters concurrently.
type Aggregator struct {
	venues  domain.VenueSet
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Aggregator. Each adapter call is bounded by timeout.
func New(venues domain.VenueSet, timeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		venues:  venues,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "aggregator")),
	}
}

type result struct {
	records []domain.MarketRecord
	err     error
}

// Collect fetches from every adapter at once and merges the results. One
// adapter's failure or timeout never affects the others. When ctx is
// cancelled Collect returns ctx.Err() and the snapshot must be discarded.
func (a *Aggregator) Collect(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	results := make([]result, len(a.venues.Adapters))

	// Not errgroup.WithContext: a failing adapter must not cancel its peers.
	var g errgroup.Group
	for i, ad := range a.venues.Adapters {
		g.Go(func() error {
			results[i] = a.fetch(ctx, ad)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Skipped:     append([]domain.DisabledVenue(nil), a.venues.Disabled...),
		PerVenue:    make(map[string]int, len(results)),
		CollectedAt: start.UTC(),
	}
	for _, d := range snap.Skipped {
		a.logger.Debug("venue skipped",
			slog.String("venue", d.ID),
			slog.String("reason", d.Reason),
		)
	}

	for i, res := range results {
		venue := a.venues.Adapters[i].Venue()
		if res.err != nil {
			snap.Failures = append(snap.Failures, Failure{Venue: venue, Reason: a.reason(res.err), Err: res.err})
			a.logger.Warn("venue fetch failed",
				slog.String("venue", venue),
				slog.String("error", res.err.Error()),
			)
			continue
		}

		valid, dropped := a.validate(venue, res.records)
		snap.Dropped += dropped
		if len(valid) == 0 && dropped > 0 {
			err := fmt.Errorf("%w: all %d records rejected", domain.ErrInvalidRecord, dropped)
			snap.Failures = append(snap.Failures, Failure{Venue: venue, Reason: "malformed payload", Err: err})
			a.logger.Warn("venue returned no valid records",
				slog.String("venue", venue),
				slog.Int("dropped", dropped),
			)
			continue
		}
		snap.PerVenue[venue] = len(valid)
		snap.Records = append(snap.Records, valid...)
	}

	snap.Duration = time.Since(start)
	a.logger.Info("snapshot collected",
		slog.Int("records", len(snap.Records)),
		slog.Int("failures", len(snap.Failures)),
		slog.Int("skipped", len(snap.Skipped)),
		slog.Int("dropped", snap.Dropped),
		slog.Duration("duration", snap.Duration),
	)
	return snap, nil
}

// fetch calls one adapter under its own deadline. The call is abandoned, not
// awaited, if the adapter ignores the deadline.
func (a *Aggregator) fetch(ctx context.Context, ad domain.VenueAdapter) result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		recs, err := ad.FetchMarkets(ctx)
		ch <- result{records: recs, err: err}
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return result{err: ctx.Err()}
	}
}

// validate drops malformed records and duplicate market ids.
func (a *Aggregator) validate(venue string, records []domain.MarketRecord) ([]domain.MarketRecord, int) {
	seen := make(map[string]bool, len(records))
	valid := make([]domain.MarketRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		if r.VenueID == "" {
			r.VenueID = venue
		}
		err := r.Validate()
		if err == nil && r.VenueID != venue {
			err = fmt.Errorf("%w: record for %q from %q adapter", domain.ErrInvalidRecord, r.VenueID, venue)
		}
		if err != nil {
			dropped++
			a.logger.Debug("record dropped", slog.String("venue", venue), slog.String("error", err.Error()))
			continue
		}
		if seen[r.MarketID] {
			continue
		}
		seen[r.MarketID] = true
		valid = append(valid, r)
	}
	return valid, dropped
}

func (a *Aggregator) reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timeout after %s", a.timeout)
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate limited"
	default:
		return err.Error()
	}
}
