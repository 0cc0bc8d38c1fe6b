package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/layout"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces diagram entries so InvalidateCache can find them
const redisKeyPrefix = "tree_diagram:diagram:"

// RedisCache implements Provider using Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache provider
func NewRedisCache(host string, port int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	return &RedisCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

// Initialize checks that the server is reachable
func (c *RedisCache) Initialize(ctx context.Context) error {
	_, err := c.client.Ping(ctx).Result()
	return err
}

// GetDiagram retrieves a diagram from cache if available
func (c *RedisCache) GetDiagram(ctx context.Context, key string) (*layout.Diagram, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn("redis get failed", "err", err)
		}
		return nil, false
	}

	var d layout.Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, false
	}

	return &d, true
}

// SetDiagram stores a diagram in cache
func (c *RedisCache) SetDiagram(ctx context.Context, key string, d *layout.Diagram) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("redis set failed", "err", err)
	}
}

// InvalidateCache removes every diagram entry
func (c *RedisCache) InvalidateCache(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// SetCacheTTL sets the cache time-to-live duration
func (c *RedisCache) SetCacheTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
