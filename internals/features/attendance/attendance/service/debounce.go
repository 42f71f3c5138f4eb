package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"librarydesk_backend/internals/helpers/reporter"
)

// Debouncer swallows repeated scans of the same key inside a short window.
type Debouncer interface {
	First(ctx context.Context, key string) bool
}

type noDebounce struct{}

func (noDebounce) First(context.Context, string) bool { return true }

type redisDebounce struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDebouncer falls back to no debouncing when rdb is nil or ttl is not positive.
func NewRedisDebouncer(rdb *redis.Client, ttl time.Duration) Debouncer {
	if rdb == nil || ttl <= 0 {
		return noDebounce{}
	}
	return redisDebounce{rdb: rdb, ttl: ttl}
}

// First fails open: a redis outage must not block the desk.
func (d redisDebounce) First(ctx context.Context, key string) bool {
	ok, err := d.rdb.SetNX(ctx, "scan:"+key, "1", d.ttl).Result()
	if err != nil {
		reporter.Warning("[ATTENDANCE] debounce unavailable", map[string]interface{}{"key": key, "error": err.Error()})
		return true
	}
	return ok
}
