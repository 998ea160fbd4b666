// Package cache provides Redis caching decorators for detection models.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
)

const (
	// DefaultTTL is used when a non-positive TTL is given.
	DefaultTTL = 10 * time.Minute
	// DefaultNamespace prefixes every cache key.
	DefaultNamespace = "detections"
)

// CachingModel decorates a Model with Redis caching keyed by the image
// content, the weight name and the confidence threshold. Identical frames
// (static scenes, repeated uploads) skip inference entirely.
type CachingModel struct {
	inner     usecase.Model
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	weight    string
}

var _ usecase.Model = (*CachingModel)(nil)

// NewCachingModel decorates a Model with Redis caching.
// If ttl is 0, it defaults to DefaultTTL. If namespace is empty, it uses DefaultNamespace.
func NewCachingModel(rdb *redis.Client, ttl time.Duration, inner usecase.Model, weight, namespace string) *CachingModel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingModel{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		weight:    weight,
	}
}

// Wrapper returns a ModelWrapper that adds caching to every loaded model.
// A nil client yields nil so models are used undecorated.
func Wrapper(rdb *redis.Client, ttl time.Duration, namespace string) usecase.ModelWrapper {
	if rdb == nil {
		return nil
	}
	return func(weight string, m usecase.Model) usecase.Model {
		return NewCachingModel(rdb, ttl, m, weight, namespace)
	}
}

// Predict returns cached detections when available, otherwise runs the inner model.
func (c *CachingModel) Predict(ctx context.Context, imageData []byte, confidence float64) ([]entity.Detection, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Predict(ctx, imageData, confidence)
	}

	key := c.cacheKey(imageData, confidence)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Detection
		if err := json.Unmarshal(b, &out); err == nil {
			slog.Debug("detection cache hit", "key", key)
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to inference
	out, err := c.inner.Predict(ctx, imageData, confidence)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for one image at one threshold.
func (c *CachingModel) cacheKey(imageData []byte, confidence float64) string {
	sum := blake2b.Sum256(imageData)
	return fmt.Sprintf("%s:%s:%s:%s",
		c.namespace,
		safe(c.weight),
		strconv.FormatFloat(confidence, 'f', -1, 64),
		hex.EncodeToString(sum[:]),
	)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
