package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON read-through cache over Redis with glob-pattern
// invalidation. Misses and marshalling problems are reported as misses, not
// errors; the cache is an optimisation, never a source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a default entry TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get loads a cached value into dest, reporting whether the key was present.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a value under key with the default TTL. Failures are silent.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes specific keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, keys...).Err()
}

// InvalidatePattern removes every key matching the glob pattern via SCAN.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("platform/cache: scan %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("platform/cache: del: %w", err)
	}
	return nil
}

// ErrKeyNotFound indicates a missing KV entry.
var ErrKeyNotFound = errors.New("platform/cache: key not found")

// KV is a thin key-value facade over Redis used for durable-ish storage
// (company profile, admin assets, invalid-token audit records).
type KV struct {
	client *redis.Client
}

// NewKV constructs a KV store over the given client.
func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

// Put stores raw bytes under key with a TTL; ttl <= 0 persists the key.
func (kv *KV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := kv.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("platform/cache: put %q: %w", key, err)
	}
	return nil
}

// Get fetches raw bytes, returning ErrKeyNotFound for missing keys.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := kv.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("platform/cache: get %q: %w", key, err)
	}
	return data, nil
}
