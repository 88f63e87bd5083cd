package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "session:current:"

// RedisRegistry stores fingerprints in Redis with the session budget as TTL.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRegistry creates a Redis-backed registry.
func NewRedisRegistry(client redis.UniversalClient) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: defaultKeyPrefix}
}

// NewRedisRegistryWithPrefix creates a registry with a custom key prefix.
func NewRedisRegistryWithPrefix(client redis.UniversalClient, prefix string) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: prefix}
}

func (r *RedisRegistry) Remember(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	if userID == "" || sessionID == "" {
		return errors.New("session: user and session id required")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.prefix+userID, sessionID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Current(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotFound
	}
	val, err := r.client.Get(ctx, r.prefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (r *RedisRegistry) Forget(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return r.client.Del(ctx, r.prefix+userID).Err()
}
