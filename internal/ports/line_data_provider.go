package ports

import (
	"bus-arrival-service/internal/domain"
	"context"
)

// Contract for fetching live line data from the upstream transit provider.
// Implementations return *domain.ProviderError on failure.
type LineDataProvider interface {
	// Return stations, live buses and metadata for one line.
	// targetOrder is optional; values <= 0 are not sent upstream.
	LineDetail(ctx context.Context, lineID string, targetOrder int) (*domain.LineDetail, error)
}
