package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "storylab:prompt-cache:"

// Redis is a Cache backed by a shared Redis instance, for deployments running
// more than one API replica. Values are stored as JSON.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects a redis-backed cache. The TTL is a safety net on top of
// the explicit post-write clears; zero means no expiry.
func NewRedis(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger.With("module", "redis_cache"),
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (any, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		r.logger.WarnContext(ctx, "Discarding undecodable cache entry", "key", key, "error", err)

		return nil, false
	}

	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.logger.WarnContext(ctx, "Skipping unencodable cache entry", "key", key, "error", err)

		return
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "Failed to write cache entry", "key", key, "error", err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		r.logger.WarnContext(ctx, "Failed to delete cache entry", "key", key, "error", err)
	}
}

func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.WarnContext(ctx, "Failed to clear cache entry", "key", iter.Val(), "error", err)
		}
	}

	if err := iter.Err(); err != nil {
		r.logger.WarnContext(ctx, "Cache clear scan failed", "error", err)
	}
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
