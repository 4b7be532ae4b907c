package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwatch/backend/internal/model"
)

func TestKey(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "snapshot:11111111-2222-3333-4444-555555555555", Key(id))
}

// unreachableCache points at a port nothing listens on, so every backend
// call fails. The cache must degrade to misses rather than surface errors.
func unreachableCache(t *testing.T) *RedisCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, time.Hour, nil)
}

func TestRedisCache_FailOpen(t *testing.T) {
	t.Parallel()

	c := unreachableCache(t)
	ctx := context.Background()
	productID := uuid.New()

	snapshot, ok := c.Get(ctx, productID)
	assert.False(t, ok)
	assert.Nil(t, snapshot)

	// Set and Delete must swallow backend failures.
	c.Set(ctx, productID, &model.Snapshot{ID: uuid.New(), ProductID: productID})
	c.Delete(ctx, productID)
}
