package services

import (
	"bus-arrival-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cst = time.FixedZone("CST", 8*3600)

func estimatorStations() []domain.Station {
	return []domain.Station{
		{Order: 1, ID: "a", Name: "龙泽", DistanceToPrev: 0},
		{Order: 2, ID: "b", Name: "回龙观东大街", DistanceToPrev: 1440},
		{Order: 3, ID: "c", Name: targetStop, DistanceToPrev: 1613},
		{Order: 4, ID: "d", Name: "天通苑北", DistanceToPrev: 820},
	}
}

func etaAt(hour, min, sec int) int64 {
	return time.Date(2026, 1, 1, hour, min, sec, 0, cst).UnixMilli()
}

func TestEstimateEnRoute(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())
	b := domain.BusTelemetry{
		BusID:                 "京A-1",
		Order:                 1,
		DistanceToNext:        300,
		DistanceToWaitStation: 1,
		Travels: []domain.Travel{
			{Order: 2, ArrivalTimeMs: etaAt(8, 2, 0), OptimisticSeconds: 120},
			{Order: 3, ArrivalTimeMs: etaAt(8, 5, 0), OptimisticSeconds: 300},
			{Order: 3, ArrivalTimeMs: etaAt(9, 0, 0), OptimisticSeconds: 999},
		},
	}

	rec, err := e.Estimate(b, 3, estimatorStations())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, domain.ArrivalRecord{
		BusID:              "京A-1",
		DistanceMeters:     3353,
		DistanceDisplay:    "3.4公里",
		ETAEpochMs:         etaAt(8, 5, 0),
		ETASeconds:         300,
		ETAClockDisplay:    "08:05:00",
		ETARelativeDisplay: "5分钟",
		StationsAway:       "2站",
		Status:             StatusEnRoute,
	}, *rec)
}

func TestEstimateImminentAtTarget(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())
	b := domain.BusTelemetry{
		BusID:          "京A-2",
		Order:          3,
		DistanceToNext: 50,
		Travels:        []domain.Travel{{Order: 3, ArrivalTimeMs: etaAt(8, 0, 45), OptimisticSeconds: 45}},
	}

	rec, err := e.Estimate(b, 3, estimatorStations())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, StatusImminent, rec.Status)
	assert.Equal(t, "45秒", rec.ETARelativeDisplay)
	assert.Equal(t, "08:00:45", rec.ETAClockDisplay)
	assert.Equal(t, "0站", rec.StationsAway)
	assert.Equal(t, 1663, rec.DistanceMeters)
}

func TestEstimateDelayOverridesETA(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())
	b := domain.BusTelemetry{
		BusID:                 "京A-3",
		Order:                 2,
		DistanceToWaitStation: 1,
		Delay:                 true,
		DelayDesc:             "预计晚点",
		Travels:               []domain.Travel{{Order: 3, ArrivalTimeMs: etaAt(8, 3, 0), OptimisticSeconds: 180}},
	}

	rec, err := e.Estimate(b, 3, estimatorStations())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "预计晚点", rec.ETAClockDisplay)
	assert.Equal(t, "预计晚点", rec.ETARelativeDisplay)
	assert.Equal(t, "预计晚点", rec.Status)
	assert.Equal(t, 180, rec.ETASeconds)
}

func TestEstimateArrivedWithoutETA(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())
	b := domain.BusTelemetry{BusID: "京A-4", Order: 3}

	rec, err := e.Estimate(b, 3, estimatorStations())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, StatusArrived, rec.ETAClockDisplay)
	assert.Equal(t, StatusArrived, rec.ETARelativeDisplay)
	assert.Equal(t, StatusArrived, rec.Status)
	assert.Zero(t, rec.ETAEpochMs)
	assert.Zero(t, rec.ETASeconds)
}

func TestEstimatePassedBusIsDiscarded(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())

	rec, err := e.Estimate(domain.BusTelemetry{BusID: "京A-5", Order: 4}, 3, estimatorStations())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestEstimateInvalidBeginUsesZeroDistance(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())
	b := domain.BusTelemetry{BusID: "京A-6", Order: 0, DistanceToNext: 80}

	rec, err := e.Estimate(b, 3, estimatorStations())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 80, rec.DistanceMeters)
	assert.Equal(t, "80米", rec.DistanceDisplay)
	assert.Equal(t, "3站", rec.StationsAway)
}

func TestEstimateUsesWaitStationMagnitude(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())
	b := domain.BusTelemetry{BusID: "京A-7", Order: 1, DistanceToWaitStation: -2, DistanceToNext: 10}

	rec, err := e.Estimate(b, 3, estimatorStations())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 1623, rec.DistanceMeters)
}

func TestEstimateRejectsMissingBusID(t *testing.T) {
	e := NewArrivalEstimator(cst, quietLogger())

	rec, err := e.Estimate(domain.BusTelemetry{Order: 1}, 3, estimatorStations())
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters int
		want   string
	}{
		{0, "0米"},
		{999, "999米"},
		{1000, "1.0公里"},
		{2345, "2.3公里"},
		{12960, "13.0公里"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDistance(tt.meters), "meters=%d", tt.meters)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0秒"},
		{59, "59秒"},
		{60, "1分钟"},
		{61, "1分钟1秒"},
		{754, "12分钟34秒"},
		{3600, "60分钟"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}
