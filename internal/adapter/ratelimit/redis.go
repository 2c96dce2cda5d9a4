package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.RateLimiter = (*Redis)(nil)

// fixedWindowScript counts a hit and returns the count with the window TTL.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// Redis is a fixed window limiter shared by every instance using
// the same Redis. When Redis fails the request is let through.
type Redis struct {
	client    redis.Scripter
	cfg       Config
	keyPrefix string
	now       func() time.Time
}

func NewRedis(client redis.Scripter, keyPrefix string, cfg Config) (*Redis, error) {
	const op = "NewRedis"
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Redis{
		client:    client,
		cfg:       cfg,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (domain.RateDecision, error) {
	const op = "Redis.Allow"
	log := slog.With("op", op)

	now := r.now()
	windowMs := r.cfg.Window.Milliseconds()

	res, err := fixedWindowScript.Run(
		ctx, r.client, []string{r.keyPrefix + key}, windowMs,
	).Int64Slice()
	if err == nil && len(res) != 2 {
		err = fmt.Errorf("unexpected redis response length: %d", len(res))
	}
	if err != nil {
		log.Warn("rate limiter unavailable, request allowed", "err", err)
		return domain.RateDecision{
			Allowed:   true,
			Limit:     r.cfg.Requests,
			Remaining: r.cfg.Requests,
			ResetAt:   now.Add(r.cfg.Window),
		}, nil
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	return domain.RateDecision{
		Allowed:   count <= r.cfg.Requests,
		Limit:     r.cfg.Requests,
		Remaining: max(0, r.cfg.Requests-count),
		ResetAt:   now.Add(ttl),
	}, nil
}
