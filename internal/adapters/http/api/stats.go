package api

import (
	"net/http"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	fallbacks     func() int64
}

// NewStatsHandler creates a new stats handler. fallbacks reports how many
// requests were answered with the empty result.
func NewStatsHandler(statsProvider StatsProvider, fallbacks func() int64) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, fallbacks: fallbacks}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]interface{}{}
	if h.statsProvider != nil {
		for k, v := range h.statsProvider.GetStats() {
			stats[k] = v
		}
	}
	if h.fallbacks != nil {
		stats["fallbacks"] = h.fallbacks()
	}
	writeJSON(w, http.StatusOK, stats)
}
