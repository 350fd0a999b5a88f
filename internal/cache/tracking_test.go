package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, TrackingCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewTrackingCache(client, time.Minute)
}

func TestTrackingCache_SetGetInvalidate(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "ARR-ABC123")
	assert.False(t, ok)

	entry := &TrackingEntry{
		Token: "f00d",
		View: domain.TrackingView{
			TrackingCode: "ARR-ABC123",
			Status:       domain.RentalStatusOnRoute,
			StatusLabel:  "En ruta",
			BoxQuantity:  15,
		},
	}
	c.Set(ctx, "ARR-ABC123", entry)
	assert.True(t, mr.Exists("tracking:ARR-ABC123"))
	assert.Equal(t, time.Minute, mr.TTL("tracking:ARR-ABC123"))

	got, ok := c.Get(ctx, "ARR-ABC123")
	require.True(t, ok)
	assert.Equal(t, "f00d", got.Token)
	assert.Equal(t, domain.RentalStatusOnRoute, got.View.Status)
	assert.Equal(t, 15, got.View.BoxQuantity)

	c.Invalidate(ctx, "ARR-ABC123")
	_, ok = c.Get(ctx, "ARR-ABC123")
	assert.False(t, ok)
}

func TestTrackingCache_Expiry(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "ARR-XYZ", &TrackingEntry{Token: "t"})
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "ARR-XYZ")
	assert.False(t, ok)
}

func TestTrackingCache_CorruptValueIsMiss(t *testing.T) {
	mr, c := newTestCache(t)
	require.NoError(t, mr.Set("tracking:ARR-BAD", "not json"))

	_, ok := c.Get(context.Background(), "ARR-BAD")
	assert.False(t, ok)
}

func TestTrackingCache_ErrorsUseAppLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWriter(&buf, "error", "json")
	t.Cleanup(func() { logger.Initialize("info", "text") })

	mr, c := newTestCache(t)
	require.NoError(t, mr.Set("tracking:ARR-BAD", "not json"))

	ctx := logger.WithRentalID(logger.WithRequestID(context.Background(), "req-42"), 9)
	_, ok := c.Get(ctx, "ARR-BAD")
	assert.False(t, ok)

	out := buf.String()
	assert.Contains(t, out, "can't parse tracking cache value")
	assert.Contains(t, out, `"code":"ARR-BAD"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"rental_id":9`)
}

func TestTrackingCache_RedisDownIsMiss(t *testing.T) {
	mr, c := newTestCache(t)
	mr.Close()

	ctx := context.Background()
	c.Set(ctx, "ARR-ABC", &TrackingEntry{Token: "t"})
	_, ok := c.Get(ctx, "ARR-ABC")
	assert.False(t, ok)
	c.Invalidate(ctx, "ARR-ABC")
}

func TestNewTrackingCache_NilClient(t *testing.T) {
	c := NewTrackingCache(nil, time.Minute)
	_, isNoop := c.(NoopTrackingCache)
	assert.True(t, isNoop)
}
