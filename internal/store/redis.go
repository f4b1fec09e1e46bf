package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter backs the counter store with Redis so that rate windows
// are shared across service instances.
type RedisCounter struct {
	client *redis.Client
}

// Ensure RedisCounter implements Counter
var _ Counter = (*RedisCounter)(nil)

// RedisConfig for creating a Redis counter store
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string // empty for no auth
	DB       int
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(ctx context.Context, config RedisConfig) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", config.Addr, err)
	}

	return &RedisCounter{client: client}, nil
}

// Get retrieves the value for a key; absent keys are not an error.
func (s *RedisCounter) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Put stores a value. expiry > 0 arms the TTL; expiry == 0 keeps the TTL
// armed by an earlier Put (redis.KeepTTL), so a window key set to expire
// on its first write still disappears after later writes.
func (s *RedisCounter) Put(ctx context.Context, key, value string, expiry time.Duration) error {
	ttl := expiry
	if ttl <= 0 {
		ttl = redis.KeepTTL
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Kind identifies this store on the debug surface.
func (s *RedisCounter) Kind() string {
	return "redis"
}

// Ping checks if the Redis connection is alive.
func (s *RedisCounter) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisCounter) Close() error {
	return s.client.Close()
}
