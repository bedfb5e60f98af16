package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimitService tracks request counts per key inside a rolling window.
type RateLimitService interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Increment(ctx context.Context, key string, window time.Duration) error
}

type rateLimitService struct {
	client *redis.Client
	logger *logrus.Logger
}

// New returns a Redis-backed limiter, or a noop when disabled.
func New(client *redis.Client, logger *logrus.Logger, enabled bool) RateLimitService {
	if !enabled {
		logger.Info("rate limiting disabled")
		return &noopRateLimitService{}
	}
	return &rateLimitService{client: client, logger: logger}
}

func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := s.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, fmt.Errorf("failed to get attempts: %w", err)
	}
	return count < limit, nil
}

func (s *rateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	pipeline := s.client.Pipeline()
	pipeline.Incr(ctx, key)
	pipeline.Expire(ctx, key, window)

	if _, err := pipeline.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment rate limit: %w", err)
	}
	return nil
}

type noopRateLimitService struct{}

func (n *noopRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (n *noopRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return nil
}
