// Package cache provides the explicit read-through cache used by the prompt store.
//
// The cache is deliberately not invalidated by the store on write: callers
// clear it once after a batch of mutations succeeds, so several writes can
// share a single invalidation.
package cache

import "context"

// Cache is a process-wide key/value cache with explicit lifecycle control.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}
