// Package cache provides Redis-based caching for completed reports
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLReport is how long a completed report stays cached
const TTLReport = 24 * time.Hour

// Cache provides Redis-based caching operations. A disabled cache is a
// valid no-op collaborator: Get always misses and Set always succeeds.
type Cache struct {
	client    *redis.Client
	keyPrefix string
	enabled   bool
}

// Config holds cache configuration
type Config struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	Enabled   bool
}

// New creates a new Cache instance
func New(cfg *Config) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "staysync"
	}

	return &Cache{
		client:    client,
		keyPrefix: prefix,
		enabled:   true,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsEnabled returns whether caching is enabled
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

// key generates a cache key with prefix
func (c *Cache) key(parts ...string) string {
	key := c.keyPrefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.enabled {
		return redis.Nil
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes values from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.key(k)
	}

	return c.client.Del(ctx, fullKeys...).Err()
}

// IsMiss reports whether a Get error is a plain cache miss
func IsMiss(err error) bool {
	return err == redis.Nil
}

// ReportKey builds the cache key for a period report
func ReportKey(start, end time.Time) string {
	return fmt.Sprintf("report:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}
