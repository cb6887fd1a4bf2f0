package pipeline

import (
	"sync"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// Status keeps the most recent cycle for the status server. Observe is
// registered with Pipeline.OnCycle.
type Status struct {
	mu      sync.RWMutex
	last    CycleReport
	emitted []domain.ArbitrageOpportunity
	cycles  int
}

// NewStatus creates an empty Status.
func NewStatus() *Status {
	return &Status{}
}

// Observe records a completed cycle.
func (s *Status) Observe(report CycleReport, emitted []domain.ArbitrageOpportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = report
	s.emitted = append([]domain.ArbitrageOpportunity(nil), emitted...)
	s.cycles++
}

// LastCycle returns the latest report and the number of completed cycles.
// ok is false before the first cycle completes.
func (s *Status) LastCycle() (report CycleReport, cycles int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.cycles, s.cycles > 0
}

// Opportunities returns the opportunities emitted by the latest cycle.
func (s *Status) Opportunities() []domain.ArbitrageOpportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ArbitrageOpportunity(nil), s.emitted...)
}
