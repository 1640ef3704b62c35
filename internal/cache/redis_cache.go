package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values. A non-positive ttl on a write falls
// back to the configured default.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewRedisCache(client *redis.Client, cfg *config.CacheConfig) *RedisCache {
	return &RedisCache{client: client, defaultTTL: cfg.DefaultTTL}
}

// Get decodes the entry at key into value. A miss is (false, nil).
func (r *RedisCache) Get(ctx context.Context, key string, value any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}

	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, data, r.ttl(ttl)).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	return nil
}

// Add writes value only when key is absent and reports whether it did.
func (r *RedisCache) Add(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := encode(key, value)
	if err != nil {
		return false, err
	}

	stored, err := r.client.SetNX(ctx, key, data, r.ttl(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("cache add %s: %w", key, err)
	}

	return stored, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}

	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) ttl(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}

	return r.defaultTTL
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache encode %s: %w", key, err)
	}

	return data, nil
}
