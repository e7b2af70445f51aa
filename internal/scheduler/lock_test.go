package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockerWithRedis(t *testing.T) *Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewLocker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestLockerSingleWinnerPerFiring(t *testing.T) {
	locker := newLockerWithRedis(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 1, 0, 5, 0, 0, time.UTC)

	ok, release, err := locker.Acquire(ctx, "billing_pass", at)
	require.NoError(t, err)
	require.True(t, ok)

	// Second instance firing at the same instant loses.
	ok2, _, err := locker.Acquire(ctx, "billing_pass", at)
	require.NoError(t, err)
	assert.False(t, ok2)

	// A different job at the same instant is independent.
	ok3, release3, err := locker.Acquire(ctx, "overdue_sweep", at)
	require.NoError(t, err)
	assert.True(t, ok3)
	release3()

	release()
	ok4, release4, err := locker.Acquire(ctx, "billing_pass", at)
	require.NoError(t, err)
	assert.True(t, ok4)
	release4()
}

func TestLockerNextFiringIsFreshLock(t *testing.T) {
	locker := newLockerWithRedis(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 1, 0, 5, 0, 0, time.UTC)

	ok, _, err := locker.Acquire(ctx, "billing_pass", at)
	require.NoError(t, err)
	require.True(t, ok)

	// Held lease from the previous day never blocks the next firing.
	ok2, release2, err := locker.Acquire(ctx, "billing_pass", at.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, ok2)
	release2()
}

func TestLockerWithoutRedisAlwaysAcquires(t *testing.T) {
	locker := NewLocker(nil)

	ok, release, err := locker.Acquire(context.Background(), "billing_pass", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}
