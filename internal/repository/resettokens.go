package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atikhonov/helpdesk/internal/models"
)

// resetKeyPrefix namespaces password-reset tokens in Redis.
const resetKeyPrefix = "reset:"

// RedisResetTokenStore keeps password-reset tokens in Redis with a TTL, so
// expiry needs no cleanup job of its own.
type RedisResetTokenStore struct {
	rdb *redis.Client
}

// NewRedisResetTokenStore creates a store backed by the given client.
func NewRedisResetTokenStore(rdb *redis.Client) *RedisResetTokenStore {
	return &RedisResetTokenStore{rdb: rdb}
}

// Put stores token -> email for the given lifetime.
func (s *RedisResetTokenStore) Put(ctx context.Context, tok, email string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, resetKeyPrefix+tok, email, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

// Take consumes a token and returns the email it was issued for. An
// unknown or expired token maps to models.ErrNotFound. Consumption is
// atomic: a token can be used once.
func (s *RedisResetTokenStore) Take(ctx context.Context, tok string) (string, error) {
	email, err := s.rdb.GetDel(ctx, resetKeyPrefix+tok).Result()
	if err == redis.Nil {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take reset token: %w", err)
	}
	return email, nil
}

// NewRedis connects to Redis and verifies connectivity before returning.
func NewRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}
