package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/pipeline"
)

// StatusSource exposes the latest cycle.
type StatusSource interface {
	LastCycle() (report pipeline.CycleReport, cycles int, ok bool)
	Opportunities() []domain.ArbitrageOpportunity
}

// StatusHandler serves the engine status and the latest opportunities.
type StatusHandler struct {
	source    StatusSource
	venues    []string
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler. venues lists the active venue ids.
func NewStatusHandler(source StatusSource, venues []string, startedAt time.Time) *StatusHandler {
	return &StatusHandler{source: source, venues: venues, startedAt: startedAt}
}

// GetStatus responds with uptime, venues and the last cycle report, which
// includes per-venue failures and skipped venues.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	report, cycles, ok := h.source.LastCycle()

	body := map[string]any{
		"started_at":     h.startedAt.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"venues":         h.venues,
		"cycles":         cycles,
		"last_cycle":     nil,
	}
	if ok {
		body["last_cycle"] = report
	}
	writeJSON(w, http.StatusOK, body)
}

// ListOpportunities responds with the opportunities emitted by the last
// cycle, optionally filtered by min_profit and capped by limit.
// GET /api/opportunities
func (h *StatusHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	minProfit, err := queryFloat(r, "min_profit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_profit")
		return
	}
	limit := queryLimit(r)

	out := make([]domain.ArbitrageOpportunity, 0)
	for _, o := range h.source.Opportunities() {
		if o.ProfitPct < minProfit {
			continue
		}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(out),
		"opportunities": out,
	})
}
