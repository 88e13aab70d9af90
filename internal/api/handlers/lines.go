package handlers

import (
	"bus-arrival-service/internal/api/dto"
	"bus-arrival-service/internal/domain"
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type LineResolver interface {
	ResolveLines(ctx context.Context) ([]domain.ResolvedLine, error)
}

// LineHandler exposes the watched lines resolved against the target stop.
type LineHandler struct {
	Resolver LineResolver
}

func (h *LineHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Resolver.ResolveLines(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "resolve lines failed", "err", err)
		if errors.Is(err, domain.ErrResolution) {
			writeError(w, r, http.StatusServiceUnavailable, "line provider unavailable")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListResolvedLinesResponse{
		Lines: make([]dto.ResolvedLineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		res.Lines = append(res.Lines, dto.ResolvedLineResponse{
			LineID:            l.LineID,
			LineName:          l.LineName,
			TargetStationID:   l.TargetStopID,
			TargetStationName: l.TargetStopName,
			TargetOrder:       l.TargetStopOrder,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
