package services

import (
	"bus-arrival-service/internal/adapters/busapi"
	"bus-arrival-service/internal/adapters/cache"
	"bus-arrival-service/internal/adapters/repositories"
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/clock"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const targetStop = "康庄美地E区"

const partialResolveTTL = 2 * time.Minute

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// route builds stations named S1..Sn with the target stop at targetOrder.
func route(n, targetOrder int) []domain.Station {
	stations := make([]domain.Station, 0, n)
	for i := 1; i <= n; i++ {
		name := "S" + strconv.Itoa(i)
		if i == targetOrder {
			name = targetStop
		}
		dist := 0
		if i > 1 {
			dist = 500
		}
		stations = append(stations, domain.Station{Order: i, ID: "sid-" + name, Name: name, DistanceToPrev: dist})
	}
	return stations
}

// bus reports an ETA for targetOrder when etaSeconds > 0.
func bus(id string, order, targetOrder, etaSeconds int) domain.BusTelemetry {
	b := domain.BusTelemetry{BusID: id, Order: order, DistanceToNext: 100, DistanceToWaitStation: 1}
	if etaSeconds > 0 {
		b.Travels = []domain.Travel{{
			Order:             targetOrder,
			ArrivalTimeMs:     1767225600000 + int64(etaSeconds)*1000,
			OptimisticSeconds: etaSeconds,
		}}
	}
	return b
}

func detail(name string, stations []domain.Station, buses ...domain.BusTelemetry) *domain.LineDetail {
	return &domain.LineDetail{
		Line:     domain.LineInfo{LineID: name, Name: name, ShortDesc: name + " short", Desc: name + " desc"},
		Stations: stations,
		Buses:    buses,
	}
}

type fixture struct {
	provider     *busapi.MockLineProvider
	resolveCache *cache.TTLCache[[]domain.ResolvedLine]
	partialCache *cache.TTLCache[[]domain.ResolvedLine]
	lineCache    *cache.TTLCache[*domain.LineDetail]
	resolver     *StationResolver
	agg          *RealtimeAggregator
	clk          *clock.MockClock
}

func newFixture(t *testing.T, watched []domain.WatchedLine, details map[string]*domain.LineDetail) *fixture {
	t.Helper()

	provider := busapi.NewMockLineProvider(details)
	clk := clock.NewMockClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	resolveCache := cache.NewTTLCache[[]domain.ResolvedLine]("resolve", 2*len(watched), 24*time.Hour, clk, nil)
	partialCache := cache.NewTTLCache[[]domain.ResolvedLine]("resolve_partial", 2*len(watched), partialResolveTTL, clk, nil)
	lineCache := cache.NewTTLCache[*domain.LineDetail]("line", 2*len(watched), 5*time.Second, clk, nil)

	src, err := repositories.NewStaticWatchedLineSource(watched, targetStop)
	require.NoError(t, err)

	resolver := NewStationResolver(provider, resolveCache, partialCache, 4, quietLogger())
	agg := NewRealtimeAggregator(src, resolver, provider, lineCache, NewArrivalEstimator(time.UTC, quietLogger()), AggregatorOptions{
		Concurrency: 4,
		LineTimeout: time.Second,
		Clock:       clk,
		Logger:      quietLogger(),
	})

	return &fixture{
		provider:     provider,
		resolveCache: resolveCache,
		partialCache: partialCache,
		lineCache:    lineCache,
		resolver:     resolver,
		agg:          agg,
		clk:          clk,
	}
}
