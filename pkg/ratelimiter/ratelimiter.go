package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/jobapp/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// Limiter allows one action per key within a window.
type Limiter interface {
	Allow(ctx context.Context, action, subject string, window time.Duration) error
	Clear(ctx context.Context, action, subject string) error
}

type redisLimiter struct {
	rdb *redis.Client
}

// NewRedisLimiter returns a limiter backed by SETNX. A nil client disables limiting.
func NewRedisLimiter(rdb *redis.Client) Limiter {
	return &redisLimiter{rdb: rdb}
}

func key(action, subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, subject)
}

func (l *redisLimiter) Allow(ctx context.Context, action, subject string, window time.Duration) error {
	if l.rdb == nil || window <= 0 {
		return nil
	}

	k := key(action, subject)
	wasSet, err := l.rdb.SetNX(ctx, k, "locked", window).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := l.rdb.TTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}

	return &RateLimitError{
		Message:    fmt.Sprintf("too many requests, please wait %.0f seconds", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

func (l *redisLimiter) Clear(ctx context.Context, action, subject string) error {
	if l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(action, subject)).Err()
}
