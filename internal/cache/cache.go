// Package cache provides a Redis-backed snapshot cache with TTL expiry.
// The cache is best-effort: any backend failure degrades to a miss so
// tracking availability never depends on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwatch/backend/internal/model"
)

// SnapshotCache short-circuits fetches for products refreshed within the
// freshness window. It is an optimistic single-flight substitute, not a
// lock: concurrent refreshes for the same product can race and the
// projection tolerates last-write-wins.
type SnapshotCache interface {
	Get(ctx context.Context, productID uuid.UUID) (*model.Snapshot, bool)
	Set(ctx context.Context, productID uuid.UUID, snapshot *model.Snapshot)
	Delete(ctx context.Context, productID uuid.UUID)
}

// RedisCache implements SnapshotCache on go-redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a snapshot cache with the given freshness window.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Key returns the cache key for a product. One key per tracked product.
func Key(productID uuid.UUID) string {
	return fmt.Sprintf("snapshot:%s", productID)
}

// Get returns the cached snapshot for a product, or a miss. Backend errors
// and undecodable payloads are both treated as misses.
func (c *RedisCache) Get(ctx context.Context, productID uuid.UUID) (*model.Snapshot, bool) {
	val, err := c.client.Get(ctx, Key(productID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("snapshot cache get failed, treating as miss",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		c.logger.Warn("snapshot cache entry undecodable, treating as miss",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return &snapshot, true
}

// Set stores a snapshot under the product key with the freshness TTL.
// Failures are logged and swallowed.
func (c *RedisCache) Set(ctx context.Context, productID uuid.UUID, snapshot *model.Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Warn("snapshot cache encode failed",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.client.Set(ctx, Key(productID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache set failed",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Delete invalidates the cache entry for a product.
func (c *RedisCache) Delete(ctx context.Context, productID uuid.UUID) {
	if err := c.client.Del(ctx, Key(productID)).Err(); err != nil {
		c.logger.Warn("snapshot cache delete failed",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()),
		)
	}
}
