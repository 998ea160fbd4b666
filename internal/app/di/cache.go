package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"logodetect_backend/internal/feature/detection/usecase"
	"logodetect_backend/internal/platform/cache"
	"logodetect_backend/internal/platform/config"
	infraredis "logodetect_backend/internal/platform/redis"
)

// NewRedis connects to Redis when REDIS_HOST is set.
// It returns nil when Redis is disabled or unreachable so the service runs without cache.
func NewRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled() {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		return nil
	}
	return rdb
}

// NewModelWrapper returns the detection cache decorator, or nil without Redis.
func NewModelWrapper(rdb *redis.Client, cfg *config.Config) usecase.ModelWrapper {
	return cache.Wrapper(rdb, cfg.CacheTTL, cache.DefaultNamespace)
}
