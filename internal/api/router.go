package api

import (
	"bus-arrival-service/internal/api/handlers"
	"bus-arrival-service/internal/platform/clock"
	"bus-arrival-service/internal/platform/metrics"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP layer depends on.
type Deps struct {
	Realtime   handlers.RealtimeQuerier
	Lines      handlers.LineResolver
	Timetables handlers.TimetableSource

	FrontLimit int
	Version    string
	Location   *time.Location
	Clock      clock.Clock
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	sys := &handlers.SystemHandler{Version: d.Version, Clock: d.Clock, Location: d.Location}
	realtime := &handlers.RealtimeHandler{Service: d.Realtime, FrontLimit: d.FrontLimit, Location: d.Location, Clock: d.Clock}
	lines := &handlers.LineHandler{Resolver: d.Lines}
	timetable := &handlers.TimetableHandler{Service: d.Timetables}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(d.Logger))
	if d.Metrics != nil {
		r.Use(metricsMiddleware(d.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	r.Get("/", sys.Root)
	r.Get("/health", sys.Health)

	r.Route("/api/v1/bus", func(r chi.Router) {
		r.Get("/realtime", realtime.Realtime)
		r.Get("/line/{line_name}", realtime.Line)
		r.Get("/lines", lines.List)
		r.Get("/timetable/{line_id}", timetable.Get)
	})

	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
