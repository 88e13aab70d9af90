package ports

import (
	"bus-arrival-service/internal/domain"
	"context"
)

// Optional extension of LineDataProvider that can serve departure timetables.
type TimetableProvider interface {
	LineDataProvider
	// Return the departure timetable of a line at a station.
	// An empty stationID selects the provider's configured default.
	Timetable(ctx context.Context, lineID string, stationID string) ([]domain.TimetableEntry, error)
}
