package handlers

import (
	"net/http"

	"github.com/telhawk-systems/hookrelay/internal/httputil"
	"github.com/telhawk-systems/hookrelay/internal/models"
)

// StatsProvider reports pipeline state for the readiness probe.
type StatsProvider interface {
	Stats() models.IngestionStats
	Sources() []models.SourceName
	Formats() []models.FormatName
}

type HealthHandler struct {
	stats StatsProvider
}

func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"sources": h.stats.Sources(),
		"formats": h.stats.Formats(),
		"stats":   h.stats.Stats(),
	})
}
