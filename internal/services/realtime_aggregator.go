package services

import (
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/clock"
	"bus-arrival-service/internal/platform/metrics"
	"bus-arrival-service/internal/platform/obs"
	"bus-arrival-service/internal/ports"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type lineResult struct {
	idx    int
	report domain.LineReport
	err    error
}

type AggregatorOptions struct {
	// Maximum number of lines fetched at once.
	Concurrency int
	// Upper bound for one line's fetch, retries included.
	LineTimeout time.Duration
	Clock       clock.Clock
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// RealtimeAggregator builds the ranked arrival forecast for all watched lines.
// Query never fails: lines that cannot be fetched are omitted and a failed
// resolution yields an empty response.
type RealtimeAggregator struct {
	source      ports.WatchedLineSource
	resolver    *StationResolver
	provider    ports.LineDataProvider
	lineCache   ports.Cache[*domain.LineDetail]
	estimator   *ArrivalEstimator
	concurrency int
	lineTimeout time.Duration
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewRealtimeAggregator(
	source ports.WatchedLineSource,
	resolver *StationResolver,
	provider ports.LineDataProvider,
	lineCache ports.Cache[*domain.LineDetail],
	estimator *ArrivalEstimator,
	opts AggregatorOptions,
) *RealtimeAggregator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 5
	}
	if opts.LineTimeout <= 0 {
		opts.LineTimeout = 15 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &RealtimeAggregator{
		source:      source,
		resolver:    resolver,
		provider:    provider,
		lineCache:   lineCache,
		estimator:   estimator,
		concurrency: opts.Concurrency,
		lineTimeout: opts.LineTimeout,
		clock:       opts.Clock,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// ResolveLines resolves the currently configured watched lines.
func (a *RealtimeAggregator) ResolveLines(ctx context.Context) ([]domain.ResolvedLine, error) {
	cfg, err := a.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve lines: load watch config: %w", err)
	}

	lines, err := a.resolver.Resolve(ctx, cfg.Lines, cfg.Target.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve lines: %w", err)
	}
	return lines, nil
}

// Query returns the current forecast for every resolved line.
func (a *RealtimeAggregator) Query(ctx context.Context) domain.AggregateResponse {
	now := a.clock.Now()
	start := time.Now()
	defer func() { a.metrics.ObserveQuery(time.Since(start).Seconds()) }()

	resp := domain.AggregateResponse{Lines: []domain.LineReport{}, GeneratedAt: now}

	resolved, err := a.ResolveLines(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrAggregation, err)
		a.logger.ErrorContext(ctx, "realtime query degraded to empty response",
			"req_id", obs.RequestID(ctx), "err", err)
		return resp
	}
	if len(resolved) == 0 {
		return resp
	}

	resp.Lines = a.fetchReports(ctx, resolved)
	rankLines(resp.Lines)
	return resp
}

// LineByName returns the report for the first watched line named name.
func (a *RealtimeAggregator) LineByName(ctx context.Context, name string) (domain.LineReport, error) {
	resp := a.Query(ctx)
	for _, l := range resp.Lines {
		if l.LineName == name {
			return l, nil
		}
	}
	return domain.LineReport{}, fmt.Errorf("line by name %q: %w", name, domain.ErrLineNotFound)
}

// fetchReports builds every line's report concurrently. Failed lines are
// logged and dropped; the rest keep resolution order.
func (a *RealtimeAggregator) fetchReports(ctx context.Context, lines []domain.ResolvedLine) []domain.LineReport {
	sem := make(chan struct{}, a.concurrency)
	resultsCh := make(chan lineResult, len(lines))
	var wg sync.WaitGroup

	for i, line := range lines {
		wg.Add(1)
		go func() {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if p := recover(); p != nil {
					resultsCh <- lineResult{idx: i, err: fmt.Errorf("build line %s: panic: %v", line.LineID, p)}
				}
			}()

			report, err := a.buildLine(ctx, line)
			resultsCh <- lineResult{idx: i, report: report, err: err}
		}()
	}

	wg.Wait()
	close(resultsCh)

	ordered := make([]*domain.LineReport, len(lines))
	for res := range resultsCh {
		if res.err != nil {
			a.metrics.Omitted("line")
			a.logger.WarnContext(ctx, "line omitted from realtime response",
				"req_id", obs.RequestID(ctx), "line_id", lines[res.idx].LineID, "err", res.err)
			continue
		}
		ordered[res.idx] = &res.report
	}

	reports := make([]domain.LineReport, 0, len(lines))
	for _, r := range ordered {
		if r != nil {
			reports = append(reports, *r)
		}
	}
	return reports
}

func (a *RealtimeAggregator) buildLine(ctx context.Context, line domain.ResolvedLine) (_ domain.LineReport, err error) {
	defer obs.Time(ctx, "aggregator.buildLine")(&err)

	fetchCtx, cancel := context.WithTimeout(ctx, a.lineTimeout)
	defer cancel()

	detail, err := a.lineCache.GetOrLoad(fetchCtx, line.LineID, func(ctx context.Context) (*domain.LineDetail, error) {
		return a.provider.LineDetail(ctx, line.LineID, line.TargetStopOrder)
	})
	if err != nil {
		return domain.LineReport{}, fmt.Errorf("build line %s: %w", line.LineID, err)
	}
	if detail == nil {
		return domain.LineReport{}, fmt.Errorf("build line %s: provider returned no data", line.LineID)
	}

	arrivals := make([]domain.ArrivalRecord, 0, len(detail.Buses))
	for _, bus := range detail.Buses {
		rec, err := a.estimator.Estimate(bus, line.TargetStopOrder, detail.Stations)
		if err != nil {
			a.metrics.Omitted("bus")
			a.logger.WarnContext(ctx, "bus omitted from line",
				"line_id", line.LineID, "bus_id", bus.BusID, "err", err)
			continue
		}
		if rec == nil {
			continue
		}
		arrivals = append(arrivals, *rec)
	}
	sortArrivals(arrivals)

	return domain.LineReport{
		LineID:         line.LineID,
		LineName:       line.LineName,
		ShortDesc:      detail.Line.ShortDesc,
		Desc:           detail.Line.Desc,
		AssistDesc:     detail.Line.AssistDesc,
		DepartureDesc:  detail.DepartureDesc,
		TargetStopName: line.TargetStopName,
		NextStopName:   domain.StationName(detail.Stations, line.TargetStopOrder+1),
		Arrivals:       arrivals,
	}, nil
}
