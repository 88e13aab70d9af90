package handlers

import (
	"bus-arrival-service/internal/api/dto"
	"bus-arrival-service/internal/domain"
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type TimetableSource interface {
	DepartureTimetable(ctx context.Context, lineID string) ([]domain.TimetableEntry, bool)
}

type TimetableHandler struct {
	Service TimetableSource
}

func (h *TimetableHandler) Get(w http.ResponseWriter, r *http.Request) {
	lineID := strings.TrimSpace(chi.URLParam(r, "line_id"))
	if lineID == "" {
		writeError(w, r, http.StatusBadRequest, "line_id is required")
		return
	}

	entries, ok := h.Service.DepartureTimetable(r.Context(), lineID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "timetable not available")
		return
	}

	res := dto.TimetableResponse{
		LineID:    lineID,
		Timetable: make([]dto.TimetableEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		res.Timetable = append(res.Timetable, dto.TimetableEntryResponse{Time: e.Time, Desc: e.Desc})
	}

	writeJSON(w, r, http.StatusOK, res)
}
