// Package dedup suppresses opportunities that were already reported within a
// cooldown window.
package dedup

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// Sweeper is implemented by stores that need explicit removal of expired
// entries.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Deduplicator emits each (pairing key, side assignment) at most once per
// cooldown. It is the only writer of its store and is not safe for concurrent
// use; cycles must run one after another.
type Deduplicator struct {
	store    domain.DedupStore
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Deduplicator over store.
func New(store domain.DedupStore, cooldown time.Duration, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		store:    store,
		cooldown: cooldown,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "dedup")),
	}
}

// Cooldown returns the configured window.
func (d *Deduplicator) Cooldown() time.Duration { return d.cooldown }

// Filter returns the opportunities that are not cooling down and records each
// of them as reported now. Entries are written before any notification is
// attempted, so a failed delivery is not retried next cycle.
//
// Lookups run first; if ctx is cancelled during them Filter returns nil and
// writes nothing. Once every lookup has completed, all entries are written
// regardless of later cancellation, so a cycle's marks land all or none.
func (d *Deduplicator) Filter(ctx context.Context, opps []domain.ArbitrageOpportunity) []domain.ArbitrageOpportunity {
	now := d.now()
	if s, ok := d.store.(Sweeper); ok {
		if n := s.Sweep(now); n > 0 {
			d.logger.Debug("swept expired entries", slog.Int("count", n))
		}
	}

	var out []domain.ArbitrageOpportunity
	for _, o := range opps {
		if ctx.Err() != nil {
			return nil
		}
		key := o.DedupKey()

		last, found, err := d.store.LastReported(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Fail open: emit when the store cannot answer.
			d.logger.Warn("dedup lookup failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		} else if found && now.Sub(last) < d.cooldown {
			d.logger.Debug("suppressed opportunity",
				slog.String("key", key),
				slog.Duration("since", now.Sub(last)),
			)
			continue
		}
		out = append(out, o)
	}
	if ctx.Err() != nil {
		return nil
	}

	writeCtx := context.WithoutCancel(ctx)
	for _, o := range out {
		key := o.DedupKey()
		if err := d.store.MarkReported(writeCtx, key, now, d.cooldown); err != nil {
			d.logger.Warn("dedup write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return out
}

// MemoryStore keeps dedup entries in a map owned by a single Deduplicator.
type MemoryStore struct {
	entries map[string]memoryEntry
}

type memoryEntry struct {
	at      time.Time
	expires time.Time
}

var _ domain.DedupStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// LastReported returns the last report time for key.
func (m *MemoryStore) LastReported(_ context.Context, key string) (time.Time, bool, error) {
	e, ok := m.entries[key]
	return e.at, ok, nil
}

// MarkReported records key as reported at the given time.
func (m *MemoryStore) MarkReported(_ context.Context, key string, at time.Time, ttl time.Duration) error {
	m.entries[key] = memoryEntry{at: at, expires: at.Add(ttl)}
	return nil
}

// Sweep drops entries that expired at or before now and returns how many were
// removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of live and not yet swept entries.
func (m *MemoryStore) Len() int { return len(m.entries) }
