package ports

import "context"

// Contract for the in-memory TTL caches injected into services.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, v V)
	// Return the cached value for key, loading and storing it on a miss.
	GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error)
	Clear()
}
