package redis

import (
	"context"
	"fmt"
	"time"

	"cochain/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Hour

// ParameterCache keeps Beta parameters in redis so every instance behind the
// load balancer sees the same recent values. Redis errors degrade to cache
// misses; the state store remains the source of truth.
type ParameterCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewParameterCache(client *redis.Client, ttl time.Duration) *ParameterCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &ParameterCache{client: client, ttl: ttl}
}

func key(projectID uint64) string {
	return fmt.Sprintf("bandit:params:%d", projectID)
}

func (c *ParameterCache) Get(ctx context.Context, projectID uint64) (float64, float64, bool) {
	raw, err := c.client.Get(ctx, key(projectID)).Result()
	if err == redis.Nil {
		return 0, 0, false
	}
	if err != nil {
		logger.Warn("bandit_cache_get_failed", "project_id", projectID, "error", err)
		return 0, 0, false
	}

	var alpha, beta float64
	if _, err := fmt.Sscanf(raw, "%f:%f", &alpha, &beta); err != nil {
		return 0, 0, false
	}

	return alpha, beta, true
}

func (c *ParameterCache) Set(ctx context.Context, projectID uint64, alpha, beta float64) {
	value := fmt.Sprintf("%f:%f", alpha, beta)
	if err := c.client.Set(ctx, key(projectID), value, c.ttl).Err(); err != nil {
		logger.Warn("bandit_cache_set_failed", "project_id", projectID, "error", err)
	}
}

func (c *ParameterCache) Delete(ctx context.Context, projectID uint64) {
	if err := c.client.Del(ctx, key(projectID)).Err(); err != nil {
		logger.Warn("bandit_cache_delete_failed", "project_id", projectID, "error", err)
	}
}
