// Package ratelimit is a sliding-window limiter backed by a redis sorted set.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	client *redis.Client
	cfg    config.RateConfig
	prefix string
	now    func() time.Time
}

// New limits attempts per id under keys "<prefix>:<id>".
func New(client *redis.Client, cfg config.RateConfig, prefix string) *Limiter {
	return &Limiter{client: client, cfg: cfg, prefix: prefix, now: time.Now}
}

// Allow records an attempt for id and reports whether it is within the
// window. Denied attempts are recorded too.
func (l *Limiter) Allow(ctx context.Context, id string) (Result, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, id)

	now := l.now().UnixMilli()

	// Only attempts after windowStart are counted.
	windowStart := now - l.cfg.WindowSize.Milliseconds()

	pipe := l.client.Pipeline()

	// drop attempts that left the window
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: strconv.FormatInt(now, 10) + ":" + uuid.NewString()})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, l.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	attempts := count.Val()

	if attempts <= l.cfg.MaxAttempts {
		return Result{Allowed: true, Remaining: int(l.cfg.MaxAttempts - attempts)}, nil
	}

	oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	retryAfter := l.cfg.WindowSize
	if len(oldest) > 0 {
		retryAfter = time.Duration(int64(oldest[0].Score)+l.cfg.WindowSize.Milliseconds()-now) * time.Millisecond
	}

	return Result{Allowed: false, RetryAfter: retryAfter}, nil
}
