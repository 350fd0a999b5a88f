package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lock := NewJobLock(client)
	ctx := context.Background()

	release, ok, err := lock.TryLock(ctx, "job:drain-outbox", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryLock(ctx, "job:drain-outbox", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	release()
	assert.False(t, mr.Exists("lock:job:drain-outbox"))

	_, ok, err = lock.TryLock(ctx, "job:drain-outbox", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJobLock_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lock := NewJobLock(client)
	ctx := context.Background()

	oldRelease, ok, err := lock.TryLock(ctx, "job:send-return-reminders", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = lock.TryLock(ctx, "job:send-return-reminders", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	oldRelease()
	assert.True(t, mr.Exists("lock:job:send-return-reminders"), "old holder must not delete the new lock")
}

func TestJobLock_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, ok, err := NewJobLock(client).TryLock(context.Background(), "job:drain-outbox", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}
