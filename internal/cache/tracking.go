package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const trackingKeyPrefix = "tracking:"

// TrackingEntry is what gets cached per tracking code. The token is kept so the
// public lookup can be authorised without touching the database.
type TrackingEntry struct {
	Token string              `json:"token"`
	View  domain.TrackingView `json:"view"`
}

// TrackingCache stores public tracking views. Implementations never fail the caller:
// cache errors are logged and treated as misses.
type TrackingCache interface {
	Get(ctx context.Context, code string) (*TrackingEntry, bool)
	Set(ctx context.Context, code string, entry *TrackingEntry)
	Invalidate(ctx context.Context, code string)
}

type redisTrackingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTrackingCache(client *redis.Client, ttl time.Duration) TrackingCache {
	if client == nil {
		return NoopTrackingCache{}
	}
	return &redisTrackingCache{client: client, ttl: ttl}
}

func trackingKey(code string) string {
	return trackingKeyPrefix + code
}

func (c *redisTrackingCache) Get(ctx context.Context, code string) (*TrackingEntry, bool) {
	val, err := c.client.Get(ctx, trackingKey(code)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		logger.ErrorContext(ctx, "can't get tracking view from redis", "code", code, "error", err)
		return nil, false
	}

	var entry TrackingEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		logger.ErrorContext(ctx, "can't parse tracking cache value", "code", code, "error", err)
		return nil, false
	}
	return &entry, true
}

func (c *redisTrackingCache) Set(ctx context.Context, code string, entry *TrackingEntry) {
	val, err := json.Marshal(entry)
	if err != nil {
		logger.ErrorContext(ctx, "can't encode tracking view", "error", err)
		return
	}
	if err := c.client.Set(ctx, trackingKey(code), val, c.ttl).Err(); err != nil {
		logger.ErrorContext(ctx, "can't set tracking view in redis", "code", code, "error", err)
	}
}

func (c *redisTrackingCache) Invalidate(ctx context.Context, code string) {
	if err := c.client.Del(ctx, trackingKey(code)).Err(); err != nil {
		logger.ErrorContext(ctx, "can't invalidate tracking view", "code", code, "error", err)
	}
}

// NoopTrackingCache is used when redis is not configured
type NoopTrackingCache struct{}

func (NoopTrackingCache) Get(context.Context, string) (*TrackingEntry, bool) { return nil, false }
func (NoopTrackingCache) Set(context.Context, string, *TrackingEntry)        {}
func (NoopTrackingCache) Invalidate(context.Context, string)                 {}
