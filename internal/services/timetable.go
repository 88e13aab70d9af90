package services

import (
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/ports"
	"context"
	"log/slog"
)

type lineResolver interface {
	ResolveLines(ctx context.Context) ([]domain.ResolvedLine, error)
}

// TimetableService serves departure timetables when the provider supports them.
type TimetableService struct {
	provider ports.LineDataProvider
	lines    lineResolver
	logger   *slog.Logger
}

func NewTimetableService(provider ports.LineDataProvider, lines lineResolver, logger *slog.Logger) *TimetableService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimetableService{provider: provider, lines: lines, logger: logger}
}

// DepartureTimetable returns the timetable of lineID at the target stop, or
// false when it is unavailable for any reason.
func (s *TimetableService) DepartureTimetable(ctx context.Context, lineID string) ([]domain.TimetableEntry, bool) {
	tp, ok := s.provider.(ports.TimetableProvider)
	if !ok {
		s.logger.WarnContext(ctx, "timetable requested", "line_id", lineID, "err", domain.ErrTimetableUnsupported)
		return nil, false
	}

	entries, err := tp.Timetable(ctx, lineID, s.stationFor(ctx, lineID))
	if err != nil {
		s.logger.WarnContext(ctx, "timetable unavailable", "line_id", lineID, "err", err)
		return nil, false
	}
	return entries, true
}

// stationFor returns the resolved target stop id on lineID, or "" so the
// provider falls back to its configured station.
func (s *TimetableService) stationFor(ctx context.Context, lineID string) string {
	if s.lines == nil {
		return ""
	}

	resolved, err := s.lines.ResolveLines(ctx)
	if err != nil {
		return ""
	}
	for _, l := range resolved {
		if l.LineID == lineID {
			return l.TargetStopID
		}
	}
	return ""
}
