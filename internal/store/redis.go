package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore holds the rate-limit counters. It is optional; when Redis is
// not configured the limiter middleware is simply not installed.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// IncrementWindow bumps the fixed-window counter for key and returns the
// resulting count. The first hit in a window sets the TTL.
func (s *RedisStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	bucket := time.Now().Unix() / int64(window.Seconds())
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
