// Package lock serializes publish runs of the same release.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("release is locked by another run")

// Locker acquires run-level locks.
type Locker interface {
	// Acquire takes the lock for key. The returned function releases it.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// NopLocker never blocks. Used when no Redis is configured.
type NopLocker struct{}

// Acquire implements Locker.
func (NopLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker is a Locker backed by Redis SET NX.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisLockerConfig holds configuration for the Redis locker
type RedisLockerConfig struct {
	// Client is the Redis client to use
	Client *redis.Client
	// TTL bounds how long a crashed run keeps the lock
	TTL time.Duration
	// Prefix is the key prefix for Redis keys
	Prefix string
}

// NewRedisLocker creates a Redis locker.
func NewRedisLocker(config RedisLockerConfig) (*RedisLocker, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.TTL <= 0 {
		return nil, errors.New("lock ttl must be greater than 0")
	}
	if config.Prefix == "" {
		config.Prefix = "eventcatalog:lock:"
	}
	return &RedisLocker{client: config.Client, ttl: config.TTL, prefix: config.Prefix}, nil
}

// Acquire implements Locker. It fails fast with ErrLocked instead of
// waiting for the holder.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s failed: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock %s failed: %w", key, err)
		}
		return nil
	}
	return release, nil
}
