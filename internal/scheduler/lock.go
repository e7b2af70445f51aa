package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockTTL = 10 * time.Minute

// Locker serializes a named job across scheduler instances with a Redis
// SETNX lease. With no Redis client every acquisition succeeds locally.
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire takes the lease for one firing of a job. The key carries the
// firing instant so tomorrow's run is a fresh lock even if today's lease
// has not expired yet.
func (l *Locker) Acquire(ctx context.Context, job string, at time.Time) (bool, func(), error) {
	if l.client == nil {
		return true, func() {}, nil
	}

	key := "wifinity:joblock:" + job + ":" + at.UTC().Format("2006-01-02T15")
	ok, err := l.client.SetNX(ctx, key, "1", lockTTL).Result()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	release := func() {
		_ = l.client.Del(context.Background(), key).Err()
	}
	return true, release, nil
}
