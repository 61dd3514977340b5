package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPartitionCache tracks a generation counter per catalog project.
// Readers bake the current generation into their cache keys; bumping the
// counter after a sync run invalidates every cached read for that project
// at once without scanning or deleting keys.
type RedisPartitionCache struct {
	client    *redis.Client
	keyPrefix string
}

// PartitionCacheRedisConfig holds Redis connection configuration
type PartitionCacheRedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisPartitionCache creates a Redis-backed partition cache
func NewRedisPartitionCache(cfg PartitionCacheRedisConfig) (*RedisPartitionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPartitionCache{
		client:    client,
		keyPrefix: "catalog:generation:",
	}, nil
}

// NewRedisPartitionCacheWithClient creates a cache with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisPartitionCacheWithClient(client *redis.Client, keyPrefix string) *RedisPartitionCache {
	if keyPrefix == "" {
		keyPrefix = "catalog:generation:"
	}
	return &RedisPartitionCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Invalidate bumps the project's generation counter
func (c *RedisPartitionCache) Invalidate(ctx context.Context, projectID uuid.UUID) error {
	key := c.keyPrefix + projectID.String()
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to bump partition generation: %w", err)
	}
	return nil
}

// Generation returns the project's current generation. A project that was
// never invalidated is at generation 0.
func (c *RedisPartitionCache) Generation(ctx context.Context, projectID uuid.UUID) (int64, error) {
	key := c.keyPrefix + projectID.String()
	gen, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read partition generation: %w", err)
	}
	return gen, nil
}

// Close closes the Redis client
func (c *RedisPartitionCache) Close() error {
	return c.client.Close()
}
