package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/pathway/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyTrailMutationUser = "trail:mutation:user:%s"

// TrailLimiter throttles trail mutations per user. A nil or disabled limiter
// allows everything.
type TrailLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewTrailLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*TrailLimiter, error) {
	limitCfg := cfg.RateLimit
	if strings.TrimSpace(limitCfg.RedisAddr) == "" {
		log.Info("trail rate limit disabled")
		return nil, nil
	}
	if !limitCfg.Enabled() {
		return nil, errors.New("trail rate limit capacity and refill must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(limitCfg.RedisAddr),
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return newTrailLimiter(NewTokenBucket(client), limitCfg.RefillPerSec, limitCfg.Capacity), nil
}

func newTrailLimiter(bucket *TokenBucket, rate float64, burst int) *TrailLimiter {
	return &TrailLimiter{bucket: bucket, rate: rate, burst: burst}
}

func (l *TrailLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *TrailLimiter) AllowUser(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &Result{Allowed: false}, errors.New("rate limiter user is empty")
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyTrailMutationUser, userID), l.rate, l.burst)
}
