// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	svc Service
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	stats := h.svc.Stats(r.Context())
	_ = json.NewEncoder(w).Encode(stats)
}
