package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/demandcast/demandcast/internal/config"
)

// RedisCache mirrors the generated forecast collections into Redis so
// API replicas can serve reads without sharing a filesystem. It is a
// best-effort layer on top of the file store, never the system of
// record.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis using the configured URL.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// Fallback to treating the value as a bare address
		opts = &redis.Options{Addr: cfg.URL}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Save marshals the value and stores it under the forecast key.
func (c *RedisCache) Save(ctx context.Context, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return c.client.Set(ctx, c.key(name), data, c.ttl).Err()
}

// Load reads and unmarshals the value stored under the forecast key.
func (c *RedisCache) Load(ctx context.Context, name string, out interface{}) error {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(name string) string {
	return "demandcast:forecast:" + name
}
