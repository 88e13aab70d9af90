package services

import (
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/obs"
	"bus-arrival-service/internal/ports"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// StationResolver finds the target stop's position on every watched line.
//
// Route topology changes rarely, so complete resolutions are cached for a
// long TTL and a cache hit makes no upstream calls. Resolutions with failed
// lines go to the partial cache, which should have a short TTL so the failed
// lines are retried without refetching the healthy ones on every call.
type StationResolver struct {
	provider    ports.LineDataProvider
	cache       ports.Cache[[]domain.ResolvedLine]
	partial     ports.Cache[[]domain.ResolvedLine]
	concurrency int
	logger      *slog.Logger
}

// NewStationResolver builds a resolver. A nil partial cache disables caching
// of partial resolutions.
func NewStationResolver(
	provider ports.LineDataProvider,
	cache ports.Cache[[]domain.ResolvedLine],
	partial ports.Cache[[]domain.ResolvedLine],
	concurrency int,
	logger *slog.Logger,
) *StationResolver {
	if concurrency < 1 {
		concurrency = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StationResolver{
		provider:    provider,
		cache:       cache,
		partial:     partial,
		concurrency: concurrency,
		logger:      logger,
	}
}

type resolveResult struct {
	line     domain.ResolvedLine
	matched  bool
	fetchErr error
}

// Resolve fetches every watched line concurrently and keeps the lines on
// which a station named targetName exists. Lines that fail to fetch are
// logged and skipped; domain.ErrResolution is returned only when every
// fetch failed.
func (r *StationResolver) Resolve(
	ctx context.Context,
	lines []domain.WatchedLine,
	targetName string,
) (_ []domain.ResolvedLine, err error) {
	defer obs.Time(ctx, "resolver.Resolve")(&err)

	if len(lines) == 0 {
		return []domain.ResolvedLine{}, nil
	}
	if targetName == "" {
		r.logger.ErrorContext(ctx, "no target station configured")
		return []domain.ResolvedLine{}, nil
	}

	key := resolutionKey(lines, targetName)
	if cached, ok := r.cache.Get(key); ok {
		return slices.Clone(cached), nil
	}
	if r.partial != nil {
		if cached, ok := r.partial.Get(key); ok {
			return slices.Clone(cached), nil
		}
	}

	results := make([]resolveResult, len(lines))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, wl := range lines {
		g.Go(func() error {
			detail, err := r.provider.LineDetail(ctx, wl.LineID, 0)
			if err != nil {
				r.logger.WarnContext(ctx, "resolve line failed", "line_id", wl.LineID, "err", err)
				results[i] = resolveResult{fetchErr: err}
				return nil
			}

			st, ok := domain.FindStation(detail.Stations, targetName)
			if !ok {
				r.logger.InfoContext(ctx, "target station not on line", "line_id", wl.LineID, "target", targetName)
				return nil
			}

			results[i] = resolveResult{
				matched: true,
				line: domain.ResolvedLine{
					LineID:          wl.LineID,
					LineName:        wl.LineName,
					TargetStopOrder: st.Order,
					TargetStopID:    st.ID,
					TargetStopName:  st.Name,
				},
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.ResolvedLine, 0, len(lines))
	failed := 0
	var lastErr error
	for _, res := range results {
		if res.fetchErr != nil {
			failed++
			lastErr = res.fetchErr
			continue
		}
		if res.matched {
			out = append(out, res.line)
		}
	}

	if failed == len(lines) {
		return nil, fmt.Errorf("resolve: all %d watched lines failed, last error: %v: %w", failed, lastErr, domain.ErrResolution)
	}

	switch {
	case failed == 0:
		r.cache.Set(key, slices.Clone(out))
	case r.partial != nil:
		r.logger.WarnContext(ctx, "partial resolution cached", "failed", failed, "watched", len(lines))
		r.partial.Set(key, slices.Clone(out))
	}
	return out, nil
}

// resolutionKey identifies a watched-line set independent of its order.
func resolutionKey(lines []domain.WatchedLine, targetName string) string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.LineID)
	}
	slices.Sort(ids)
	return strings.Join(ids, ",") + "|" + targetName
}
