// Package security holds request guards for the HTTP API.
package security

import (
	"context"
	"fmt"
	"time"

	"github.com/monteirok/popmart-tracker/internal/cache"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	store  cache.Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// RateResult 描述 Allow 调用的结果。
type RateResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter 使用缓存存储构建限流器。
func NewRateLimiter(store cache.Store, limit int, window time.Duration) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limiter requires a cache store")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{store: store.Namespace("rate"), limit: limit, window: window, now: time.Now}, nil
}

// Allow records one hit for key and reports whether it fits the window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	current, err := l.store.Increment(ctx, key, 1, l.window)
	if err != nil {
		return RateResult{}, fmt.Errorf("increment rate limit counter: %w", err)
	}

	ttl := l.window
	if remain, ok := l.store.TTL(ctx, key); ok {
		ttl = remain
	}
	remaining := l.limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{
		Allowed:   current <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   l.now().Add(ttl),
	}, nil
}

// Reset 清除指定 key 的计数。
func (l *RateLimiter) Reset(ctx context.Context, key string) {
	l.store.Delete(ctx, key)
}
