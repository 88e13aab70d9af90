package services

import (
	"bus-arrival-service/internal/adapters/busapi"
	"bus-arrival-service/internal/adapters/cache"
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/clock"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var watched = []domain.WatchedLine{
	{LineID: "L1", LineName: "625"},
	{LineID: "L2", LineName: "670"},
	{LineID: "L3", LineName: "专线"},
}

func TestStationResolverResolve(t *testing.T) {
	f := newFixture(t, watched, map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
		"L2": detail("L2", route(6, 5)),
		"L3": detail("L3", route(4, 0)),
	})

	got, err := f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)

	assert.Equal(t, []domain.ResolvedLine{
		{LineID: "L1", LineName: "625", TargetStopOrder: 3, TargetStopID: "sid-" + targetStop, TargetStopName: targetStop},
		{LineID: "L2", LineName: "670", TargetStopOrder: 5, TargetStopID: "sid-" + targetStop, TargetStopName: targetStop},
	}, got)
}

func TestStationResolverNoMatchIsEmptyNotError(t *testing.T) {
	f := newFixture(t, watched, map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
		"L2": detail("L2", route(6, 5)),
		"L3": detail("L3", route(4, 0)),
	})

	got, err := f.resolver.Resolve(context.Background(), watched, "不存在的站")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStationResolverAllFailed(t *testing.T) {
	f := newFixture(t, watched, nil)
	for _, l := range watched {
		f.provider.Fail(l.LineID, errors.New("connection refused"))
	}

	_, err := f.resolver.Resolve(context.Background(), watched, targetStop)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolution)
}

func TestStationResolverPartialFailureUsesShortTTL(t *testing.T) {
	f := newFixture(t, watched, map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
		"L2": detail("L2", route(6, 5)),
		"L3": detail("L3", route(4, 0)),
	})
	f.provider.Fail("L2", errors.New("timeout"))

	got, err := f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "L1", got[0].LineID)

	f.provider.SetDetail("L2", detail("L2", route(6, 5)))
	got, err = f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	assert.Len(t, got, 1, "partial result is served until its ttl passes")
	assert.Equal(t, 1, f.provider.Calls("L1"))

	f.clk.Advance(partialResolveTTL + time.Second)
	got, err = f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, f.provider.Calls("L1"))

	_, err = f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	assert.Equal(t, 2, f.provider.Calls("L1"), "complete result goes to the long-lived cache")
}

func TestStationResolverPersistentLineFailureDoesNotRefetchHealthyLines(t *testing.T) {
	f := newFixture(t, watched, map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
		"L2": detail("L2", route(6, 5)),
	})
	f.provider.Fail("L3", errors.New("line retired"))

	for range 5 {
		got, err := f.resolver.Resolve(context.Background(), watched, targetStop)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, 1, f.provider.Calls("L1"))
	assert.Equal(t, 1, f.provider.Calls("L3"))

	f.clk.Advance(partialResolveTTL + time.Second)
	_, err := f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	assert.Equal(t, 2, f.provider.Calls("L1"))
	assert.Equal(t, 2, f.provider.Calls("L3"))
}

func TestStationResolverWithoutPartialCacheRetriesEveryCall(t *testing.T) {
	provider := busapi.NewMockLineProvider(map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
	})
	provider.Fail("L2", errors.New("timeout"))
	clk := clock.NewMockClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	full := cache.NewTTLCache[[]domain.ResolvedLine]("resolve", 4, time.Hour, clk, nil)
	r := NewStationResolver(provider, full, nil, 2, quietLogger())

	lines := watched[:2]
	for range 2 {
		got, err := r.Resolve(context.Background(), lines, targetStop)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 2, provider.Calls("L1"))
	assert.Equal(t, 0, full.Len())
}

func TestStationResolverCacheHitSkipsNetwork(t *testing.T) {
	f := newFixture(t, watched, map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
		"L2": detail("L2", route(6, 5)),
		"L3": detail("L3", route(4, 0)),
	})

	_, err := f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	require.Equal(t, 3, f.provider.TotalCalls())

	reordered := []domain.WatchedLine{watched[2], watched[0], watched[1]}
	got, err := f.resolver.Resolve(context.Background(), reordered, targetStop)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, f.provider.TotalCalls(), "cache hit must not call the provider")

	f.resolveCache.Clear()
	_, err = f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)
	assert.Equal(t, 6, f.provider.TotalCalls())
}

func TestStationResolverTargetChangeMisses(t *testing.T) {
	f := newFixture(t, watched, map[string]*domain.LineDetail{
		"L1": detail("L1", route(5, 3)),
		"L2": detail("L2", route(6, 5)),
		"L3": detail("L3", route(4, 0)),
	})

	_, err := f.resolver.Resolve(context.Background(), watched, targetStop)
	require.NoError(t, err)

	got, err := f.resolver.Resolve(context.Background(), watched, "S1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 6, f.provider.TotalCalls())
}

func TestStationResolverEmptyInputs(t *testing.T) {
	f := newFixture(t, watched, nil)

	got, err := f.resolver.Resolve(context.Background(), nil, targetStop)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.resolver.Resolve(context.Background(), watched, "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, f.provider.TotalCalls())
}

func TestStationResolverLongRouteNames(t *testing.T) {
	lines := []domain.WatchedLine{{LineID: "L1", LineName: "625"}}
	f := newFixture(t, lines, map[string]*domain.LineDetail{
		"L1": detail("L1", route(14, 3)),
	})

	got, err := f.resolver.Resolve(context.Background(), lines, "S12")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].TargetStopOrder)
	assert.Equal(t, "S13", domain.StationName(route(14, 3), 13))
}
