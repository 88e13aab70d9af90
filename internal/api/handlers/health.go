package handlers

import (
	"bus-arrival-service/internal/platform/clock"
	"net/http"
	"time"
)

const serviceName = "bus-arrival-service"

// SystemHandler serves liveness and service info.
type SystemHandler struct {
	Version  string
	Clock    clock.Clock
	Location *time.Location
}

func (h *SystemHandler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}

// Health provides a minimal liveness check endpoint.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": formatTimestamp(h.now(), h.Location),
	})
}

func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"service":   serviceName,
		"version":   h.Version,
		"status":    "running",
		"timestamp": formatTimestamp(h.now(), h.Location),
		"endpoints": []string{
			"/health",
			"/api/v1/bus/realtime",
			"/api/v1/bus/line/{line_name}",
			"/api/v1/bus/lines",
			"/api/v1/bus/timetable/{line_id}",
			"/metrics",
		},
	})
}
