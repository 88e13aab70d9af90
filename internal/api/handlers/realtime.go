package handlers

import (
	"bus-arrival-service/internal/api/dto"
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/clock"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type RealtimeQuerier interface {
	Query(ctx context.Context) domain.AggregateResponse
	LineByName(ctx context.Context, name string) (domain.LineReport, error)
}

type RealtimeHandler struct {
	Service    RealtimeQuerier
	FrontLimit int
	Location   *time.Location
	Clock      clock.Clock
}

func (h *RealtimeHandler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}

// Realtime returns the ranked forecast for every watched line. Upstream
// failures never surface here; they show up as missing lines.
func (h *RealtimeHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	resp := h.Service.Query(r.Context())

	data := make([]dto.LineRealTimeInfo, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		data = append(data, dto.FromLineReport(l))
	}

	writeJSON(w, r, http.StatusOK, dto.RealtimeResponse{
		Status:     http.StatusOK,
		Message:    "success",
		Total:      len(data),
		Timestamp:  formatTimestamp(resp.GeneratedAt, h.Location),
		Data:       data,
		FrontLimit: h.FrontLimit,
	})
}

func (h *RealtimeHandler) Line(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "line_name"))
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "line_name is required")
		return
	}

	line, err := h.Service.LineByName(r.Context(), name)
	if errors.Is(err, domain.ErrLineNotFound) {
		writeError(w, r, http.StatusNotFound, "line not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "line by name failed", "line_name", name, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RealtimeResponse{
		Status:     http.StatusOK,
		Message:    "success",
		Total:      1,
		Timestamp:  formatTimestamp(h.now(), h.Location),
		Data:       []dto.LineRealTimeInfo{dto.FromLineReport(line)},
		FrontLimit: h.FrontLimit,
	})
}
