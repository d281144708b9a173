package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
)

// RedisLimiter shares fixed-window counters between replicas. Each window has
// its own key, which expires shortly after the window closes.
type RedisLimiter struct {
	client rueidis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisLimiter(client rueidis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) windowKey(key string, windowStart time.Time) string {
	return l.prefix + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := l.now().Truncate(l.window)
	resetAt := windowStart.Add(l.window)
	redisKey := l.windowKey(key, windowStart)
	ttl := int64(l.window/time.Second) + 1

	results := l.client.DoMulti(ctx,
		l.client.B().Incr().Key(redisKey).Build(),
		l.client.B().Expire().Key(redisKey).Seconds(ttl).Build(),
	)

	count, err := results[0].AsInt64()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", redisKey, err)
	}
	if err := results[1].Error(); err != nil {
		return Decision{}, fmt.Errorf("expire %s: %w", redisKey, err)
	}

	if count > int64(l.limit) {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Decision{
		Allowed:   true,
		Remaining: l.limit - int(count),
		ResetAt:   resetAt,
	}, nil
}
