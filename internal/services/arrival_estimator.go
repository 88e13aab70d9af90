package services

import (
	"bus-arrival-service/internal/domain"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	StatusImminent = "即将到站"
	StatusEnRoute  = "正在途中"
	StatusArrived  = "已到站"
)

// ArrivalEstimator turns one bus's telemetry into a display-ready arrival
// record for the target stop. It holds no mutable state.
type ArrivalEstimator struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewArrivalEstimator formats clock times in loc (time.Local when nil).
func NewArrivalEstimator(loc *time.Location, logger *slog.Logger) *ArrivalEstimator {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArrivalEstimator{loc: loc, logger: logger}
}

// Estimate returns nil without error for a bus that has already passed the
// target stop.
//
// The walk starts at order + |distanceToWaitStation| - 1, so a bus reporting
// wait distance 1 counts the segment it is currently on. Off-by-one cases at
// the first station follow the provider's numbering as-is.
func (e *ArrivalEstimator) Estimate(
	bus domain.BusTelemetry,
	targetOrder int,
	stations []domain.Station,
) (*domain.ArrivalRecord, error) {
	if bus.Order > targetOrder {
		return nil, nil
	}
	if strings.TrimSpace(bus.BusID) == "" {
		return nil, errors.New("estimate arrival: bus id is empty")
	}

	begin := bus.Order + abs(bus.DistanceToWaitStation) - 1
	dist, err := domain.CalculateDistance(stations, begin, targetOrder)
	if err != nil {
		e.logger.Error("distance to target unavailable",
			"bus_id", bus.BusID, "begin", begin, "target", targetOrder, "err", err)
		dist = 0
	}
	dist += bus.DistanceToNext

	rec := &domain.ArrivalRecord{
		BusID:           bus.BusID,
		DistanceMeters:  dist,
		DistanceDisplay: FormatDistance(dist),
		StationsAway:    fmt.Sprintf("%d站", targetOrder-bus.Order),
	}

	if t, ok := bus.TravelTo(targetOrder); ok {
		rec.ETAEpochMs = t.ArrivalTimeMs
		rec.ETASeconds = t.OptimisticSeconds
	}

	switch {
	case bus.Delay:
		rec.ETAClockDisplay = bus.DelayDesc
		rec.ETARelativeDisplay = bus.DelayDesc
		rec.Status = bus.DelayDesc
	case rec.ETAEpochMs != 0:
		rec.ETAClockDisplay = time.UnixMilli(rec.ETAEpochMs).In(e.loc).Format("15:04:05")
		rec.ETARelativeDisplay = FormatDuration(rec.ETASeconds)
		if bus.Order == targetOrder {
			rec.Status = StatusImminent
		} else {
			rec.Status = StatusEnRoute
		}
	default:
		rec.ETAClockDisplay = StatusArrived
		rec.ETARelativeDisplay = StatusArrived
		rec.Status = StatusArrived
	}

	return rec, nil
}

// FormatDistance renders meters as "<n>米" below one kilometer and as
// kilometers with one decimal otherwise.
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d米", meters)
	}
	return fmt.Sprintf("%.1f公里", float64(meters)/1000)
}

// FormatDuration renders seconds as "<s>秒", "<m>分钟" or "<m>分钟<s>秒".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d秒", seconds)
	}
	m, s := seconds/60, seconds%60
	if s == 0 {
		return fmt.Sprintf("%d分钟", m)
	}
	return fmt.Sprintf("%d分钟%d秒", m, s)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
