// Package app wires concrete adapters behind ports. It is shared by the HTTP
// server and the command-line client.
package app

import (
	"bus-arrival-service/internal/adapters/busapi"
	"bus-arrival-service/internal/adapters/cache"
	"bus-arrival-service/internal/adapters/repositories"
	"bus-arrival-service/internal/config"
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/clock"
	"bus-arrival-service/internal/platform/metrics"
	"bus-arrival-service/internal/ports"
	"bus-arrival-service/internal/services"
	"context"
	"fmt"
	"log/slog"
)

const minCacheSize = 8

type App struct {
	Source     ports.WatchedLineSource
	Provider   ports.LineDataProvider
	Aggregator *services.RealtimeAggregator
	Timetables *services.TimetableService
}

// New builds the service graph from cfg. The watch file is read once here to
// validate it and to size the caches.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*App, error) {
	provider, err := newProvider(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	source := repositories.NewYAMLWatchedLineSource(cfg.WatchFile)
	watch, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	logger.Info("watch config loaded",
		"file", cfg.WatchFile, "lines", len(watch.Lines), "target", watch.Target.Name)

	size := cacheSize(len(watch.Lines), cfg.MaxWatchedLines)
	clk := clock.RealClock{}

	resolveCache := cache.NewTTLCache[[]domain.ResolvedLine]("resolve", size, cfg.ResolveCacheTTL, clk, m)
	partialCache := cache.NewTTLCache[[]domain.ResolvedLine]("resolve_partial", size, cfg.PartialResolveTTL, clk, m)
	lineCache := cache.NewTTLCache[*domain.LineDetail]("line", size, cfg.LineCacheTTL, clk, m)

	resolver := services.NewStationResolver(provider, resolveCache, partialCache, cfg.FetchConcurrency, logger)
	estimator := services.NewArrivalEstimator(cfg.Location, logger)
	aggregator := services.NewRealtimeAggregator(source, resolver, provider, lineCache, estimator, services.AggregatorOptions{
		Concurrency: cfg.FetchConcurrency,
		LineTimeout: cfg.LineFetchTimeout,
		Clock:       clk,
		Metrics:     m,
		Logger:      logger,
	})

	return &App{
		Source:     source,
		Provider:   provider,
		Aggregator: aggregator,
		Timetables: services.NewTimetableService(provider, aggregator, logger),
	}, nil
}

// cacheSize bounds each cache at twice the watched line count. The watch file
// is reloaded while running, so the bound uses the configured maximum when
// that is larger than the startup count.
func cacheSize(watched, maxWatched int) int {
	return max(2*max(watched, maxWatched), minCacheSize)
}

func newProvider(cfg *config.Config, m *metrics.Metrics) (ports.LineDataProvider, error) {
	switch cfg.Provider {
	case "file":
		p, err := busapi.NewFileProvider(cfg.FixtureDir)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "http":
		up := cfg.Upstream
		c, err := busapi.NewClient(busapi.Options{
			Endpoints: busapi.Endpoints{
				LineDetail: up.Endpoints.LineDetail,
				Timetable:  up.Endpoints.Timetable,
			},
			Params: busapi.Params{
				CityID:    up.Location.CityID,
				StationID: up.Location.StationID,
				GPSType:   up.Params.GPSType,
				S:         up.Params.S,
				V:         up.Params.V,
				Src:       up.Params.Src,
				UserID:    up.Params.UserID,
				Sign:      up.Params.Sign,
				Location:  domain.Coordinates{Lon: up.Location.Lng, Lat: up.Location.Lat},
			},
			Retry: busapi.RetryPolicy{
				MaxAttempts: cfg.RetryMaxAttempts,
				Delay:       cfg.RetryDelay,
				Multiplier:  cfg.RetryMultiplier,
			},
			RateLimit: cfg.RateLimit,
			RateBurst: cfg.RateBurst,
			Timeout:   cfg.UpstreamTimeout,
			Metrics:   m,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
