package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flarelab/storylab/pkg/cache"
)

const promptCacheTTL = 30 * time.Minute

// NewCache creates the prompt cache. A Redis URL selects the shared Redis
// cache; without one the process-local memory cache is used.
func NewCache(ctx context.Context, redisURL string, logger *slog.Logger) cache.Cache {
	if redisURL == "" {
		return cache.NewMemory()
	}

	c, err := cache.NewRedis(ctx, redisURL, promptCacheTTL, logger)
	if err != nil {
		panic(fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return c
}
