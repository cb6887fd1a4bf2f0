package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func opportunity(side domain.SideAssignment) domain.ArbitrageOpportunity {
	a := domain.MarketRecord{VenueID: "kalshi", MarketID: "K1"}
	b := domain.MarketRecord{VenueID: "polymarket", MarketID: "P1"}
	p := domain.NewMatchedPair(a, b, 0.95, "crypto")
	yes, no := side.Legs(p)
	return domain.ArbitrageOpportunity{Pair: p, Side: side, BuyYesOn: yes, BuyNoOn: no}
}

func newTestDedup(store domain.DedupStore, cooldown time.Duration) (*Deduplicator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	d := New(store, cooldown, discardLogger())
	d.now = clock.now
	return d, clock
}

func TestFilterCooldown(t *testing.T) {
	ctx := context.Background()
	d, clock := newTestDedup(NewMemoryStore(), 10*time.Minute)
	opp := opportunity(domain.YesOnA)

	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opp}); len(got) != 1 {
		t.Fatalf("first Filter emitted %d, want 1", len(got))
	}

	clock.advance(5 * time.Minute)
	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opp}); len(got) != 0 {
		t.Errorf("Filter within cooldown emitted %d, want 0", len(got))
	}

	clock.advance(5 * time.Minute)
	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opp}); len(got) != 1 {
		t.Errorf("Filter after cooldown emitted %d, want 1", len(got))
	}

	// The re-emission restarted the window.
	clock.advance(time.Minute)
	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opp}); len(got) != 0 {
		t.Errorf("Filter after re-emission emitted %d, want 0", len(got))
	}
}

func TestFilterFlippedSideIsDistinct(t *testing.T) {
	ctx := context.Background()
	d, clock := newTestDedup(NewMemoryStore(), time.Hour)

	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opportunity(domain.YesOnA)}); len(got) != 1 {
		t.Fatalf("Filter emitted %d, want 1", len(got))
	}
	clock.advance(time.Minute)
	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opportunity(domain.YesOnB)}); len(got) != 1 {
		t.Errorf("Filter for flipped side emitted %d, want 1", len(got))
	}
}

func TestFilterSweepsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	d, clock := newTestDedup(store, time.Minute)

	d.Filter(ctx, []domain.ArbitrageOpportunity{opportunity(domain.YesOnA)})
	if store.Len() != 1 {
		t.Fatalf("store.Len() = %d, want 1", store.Len())
	}

	clock.advance(2 * time.Minute)
	d.Filter(ctx, nil)
	if store.Len() != 0 {
		t.Errorf("store.Len() after sweep = %d, want 0", store.Len())
	}
}

type failingStore struct{}

func (failingStore) LastReported(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("connection refused")
}

func (failingStore) MarkReported(context.Context, string, time.Time, time.Duration) error {
	return errors.New("connection refused")
}

func TestFilterStoreErrorEmits(t *testing.T) {
	d, _ := newTestDedup(failingStore{}, time.Hour)
	got := d.Filter(context.Background(), []domain.ArbitrageOpportunity{opportunity(domain.YesOnA)})
	if len(got) != 1 {
		t.Errorf("Filter with failing store emitted %d, want 1", len(got))
	}
}

// cancellingStore wraps a MemoryStore and cancels the cycle context on the
// lookup numbered cancelAt, failing that lookup the way a network store does.
type cancellingStore struct {
	*MemoryStore
	cancel   context.CancelFunc
	cancelAt int
	lookups  int
}

func (s *cancellingStore) LastReported(ctx context.Context, key string) (time.Time, bool, error) {
	s.lookups++
	if s.lookups == s.cancelAt {
		s.cancel()
		return time.Time{}, false, ctx.Err()
	}
	return s.MemoryStore.LastReported(ctx, key)
}

func TestFilterCancelledMidwayWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancellingStore{MemoryStore: NewMemoryStore(), cancel: cancel, cancelAt: 2}
	d, _ := newTestDedup(store, time.Hour)

	opps := []domain.ArbitrageOpportunity{opportunity(domain.YesOnA), opportunity(domain.YesOnB)}
	if got := d.Filter(ctx, opps); got != nil {
		t.Errorf("Filter after cancellation = %d opportunities, want nil", len(got))
	}
	if n := store.Len(); n != 0 {
		t.Errorf("store.Len() = %d, want 0", n)
	}
}

func TestFilterCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	d, _ := newTestDedup(store, time.Hour)

	if got := d.Filter(ctx, []domain.ArbitrageOpportunity{opportunity(domain.YesOnA)}); got != nil {
		t.Errorf("Filter = %d opportunities, want nil", len(got))
	}
	if n := store.Len(); n != 0 {
		t.Errorf("store.Len() = %d, want 0", n)
	}
}

func TestMemoryStoreSweepBoundary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.MarkReported(ctx, "k", at, time.Minute)

	if n := s.Sweep(at.Add(59 * time.Second)); n != 0 {
		t.Errorf("Sweep before expiry removed %d, want 0", n)
	}
	if n := s.Sweep(at.Add(time.Minute)); n != 1 {
		t.Errorf("Sweep at expiry removed %d, want 1", n)
	}
	if _, ok, _ := s.LastReported(ctx, "k"); ok {
		t.Error("LastReported found swept key")
	}
}
