package ports

import (
	"bus-arrival-service/internal/domain"
	"context"
)

// Port: a boundary for reading the watched lines and target stop.
// Implementations may return fresh data on every call.
type WatchedLineSource interface {
	Load(ctx context.Context) (domain.WatchConfig, error)
}
