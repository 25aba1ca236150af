package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	portsrepo "github.com/SscSPs/cashdesk/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore keeps idempotency keys in Redis so every instance of the
// service sees the same reservations.
type RedisIdempotencyStore struct {
	client *redis.Client
}

var _ portsrepo.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisIdempotencyStore wraps an existing client.
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

// Reserve uses SETNX so exactly one caller wins the key.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, key, portsrepo.IdempotencyPending, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	existing, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; report it as in flight and let the client retry.
		return portsrepo.IdempotencyPending, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return existing, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, movementID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, movementID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
