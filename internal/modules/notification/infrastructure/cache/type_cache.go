package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	typesKey = "notifications:types"
	typesTTL = 10 * time.Minute
)

// RedisTypeCache keeps the distinct notification type list in redis.
type RedisTypeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTypeCache(client *redis.Client) *RedisTypeCache {
	return &RedisTypeCache{client: client, ttl: typesTTL}
}

// Get reports ok=false on a miss.
func (c *RedisTypeCache) Get(ctx context.Context) ([]string, bool, error) {
	val, err := c.client.Get(ctx, typesKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var types []string
	if err := json.Unmarshal([]byte(val), &types); err != nil {
		// a corrupt entry is treated as a miss and overwritten on the next Set
		return nil, false, nil
	}
	return types, true, nil
}

func (c *RedisTypeCache) Set(ctx context.Context, types []string) error {
	b, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, typesKey, b, c.ttl).Err()
}

func (c *RedisTypeCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, typesKey).Err()
}
