package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of redis.Cmdable the idempotency store uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisIdempotencyStore shares idempotency keys between API instances.
// A key held by another instance is reported as not acquired.
type RedisIdempotencyStore struct {
	client  redisClient
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// RedisIdempotencyConfig holds configuration for the Redis backend
type RedisIdempotencyConfig struct {
	Prefix  string        // Key prefix (default "kinship:idem:")
	TTL     time.Duration // How long to keep results (default 24h)
	LockTTL time.Duration // How long an in-flight claim lives (default 1m)
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store
func NewRedisIdempotencyStore(client redisClient, cfg RedisIdempotencyConfig) *RedisIdempotencyStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "kinship:idem:"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = time.Minute
	}
	return &RedisIdempotencyStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, lockTTL: cfg.LockTTL}
}

func (s *RedisIdempotencyStore) resultKey(key string) string { return s.prefix + key }
func (s *RedisIdempotencyStore) lockKey(key string) string   { return s.prefix + key + ":lock" }

// Acquire implements IdempotencyBackend
func (s *RedisIdempotencyStore) Acquire(ctx context.Context, key string) (*CachedResponse, bool, error) {
	raw, err := s.client.Get(ctx, s.resultKey(key)).Bytes()
	switch {
	case err == nil:
		var resp CachedResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, false, err
		}
		return &resp, false, nil
	case !errors.Is(err, redis.Nil):
		return nil, false, err
	}

	ok, err := s.client.SetNX(ctx, s.lockKey(key), "1", s.lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	return nil, ok, nil
}

// Complete implements IdempotencyBackend
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, resp *CachedResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.resultKey(key), raw, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, s.lockKey(key)).Err()
}

// Release implements IdempotencyBackend
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.lockKey(key)).Err()
}
