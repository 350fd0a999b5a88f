package cache

import (
	"context"
	"time"

	"arriendo-cajas-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our value
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// JobLock is a redis SET NX lock shared by every process running cron jobs
type JobLock struct {
	client *redis.Client
}

func NewJobLock(client *redis.Client) *JobLock {
	return &JobLock{client: client}
}

func (l *JobLock) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := "lock:" + name
	value := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, value).Err(); err != nil {
			logger.Warn("Failed to release job lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}
