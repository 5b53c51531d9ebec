package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	showtimeID := uuid.MustParse("6f1c2b7e-1d2a-4c59-9d55-0d1f0b9d1a01")
	seatID := uuid.MustParse("0b8f6a8a-3f5f-4a4e-8a55-5a0a9a6b7c02")

	assert.Equal(t, "showtime:6f1c2b7e-1d2a-4c59-9d55-0d1f0b9d1a01:seat:0b8f6a8a-3f5f-4a4e-8a55-5a0a9a6b7c02:lock",
		MakeSeatLockKey(showtimeID, seatID))
	assert.Equal(t, "showtime:6f1c2b7e-1d2a-4c59-9d55-0d1f0b9d1a01:seats:available",
		MakeShowtimeAvailableSeatsKey(showtimeID))
	assert.Equal(t, "rl:ip:10.0.0.1", MakeRateLimitKey("rl", "ip:10.0.0.1"))
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c NopCache

	_, err := c.GetAvailableSeats(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.LockSeats(ctx, uuid.New(), []uuid.UUID{uuid.New()}, "owner", time.Second))
	assert.NoError(t, c.UnlockSeats(ctx, uuid.New(), []uuid.UUID{uuid.New()}, "owner"))
}

// newTestRedis connects to TEST_REDIS_URL or skips the test.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	c, err := NewRedisCache(url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisSeatLocks(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	showtimeID := uuid.New()
	a, b, other := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, c.LockSeats(ctx, showtimeID, []uuid.UUID{a, b}, "first", time.Minute))
	// re-entrant for the same owner
	require.NoError(t, c.LockSeats(ctx, showtimeID, []uuid.UUID{a}, "first", time.Minute))

	err := c.LockSeats(ctx, showtimeID, []uuid.UUID{other, b}, "second", time.Minute)
	assert.ErrorIs(t, err, ErrSeatsLocked)

	// the refused request must not have taken the free seat
	require.NoError(t, c.LockSeats(ctx, showtimeID, []uuid.UUID{other}, "third", time.Minute))

	// only the owner can release
	require.NoError(t, c.UnlockSeats(ctx, showtimeID, []uuid.UUID{a, b}, "second"))
	assert.ErrorIs(t, c.LockSeats(ctx, showtimeID, []uuid.UUID{a}, "second", time.Minute), ErrSeatsLocked)

	require.NoError(t, c.UnlockSeats(ctx, showtimeID, []uuid.UUID{a, b}, "first"))
	assert.NoError(t, c.LockSeats(ctx, showtimeID, []uuid.UUID{a, b}, "second", time.Minute))

	require.NoError(t, c.UnlockSeats(ctx, showtimeID, []uuid.UUID{a, b}, "second"))
	require.NoError(t, c.UnlockSeats(ctx, showtimeID, []uuid.UUID{other}, "third"))
}

func TestRedisAvailableSeats(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	showtimeID := uuid.New()

	_, err := c.GetAvailableSeats(ctx, showtimeID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.WarmAvailableSeats(ctx, map[uuid.UUID]int{showtimeID: 42}, time.Minute))
	n, err := c.GetAvailableSeats(ctx, showtimeID)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	require.NoError(t, c.SetAvailableSeats(ctx, showtimeID, 40, time.Minute))
	n, err = c.GetAvailableSeats(ctx, showtimeID)
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	filled, err := c.FillAvailableSeats(ctx, showtimeID, 45, time.Minute)
	require.NoError(t, err)
	assert.False(t, filled, "a cached count is never replaced by a fill")
	n, err = c.GetAvailableSeats(ctx, showtimeID)
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	require.NoError(t, c.InvalidateAvailableSeats(ctx, showtimeID))
	_, err = c.GetAvailableSeats(ctx, showtimeID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	filled, err = c.FillAvailableSeats(ctx, showtimeID, 39, time.Minute)
	require.NoError(t, err)
	assert.True(t, filled)
	n, err = c.GetAvailableSeats(ctx, showtimeID)
	require.NoError(t, err)
	assert.Equal(t, 39, n)
}

func TestRedisTokenBucket(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	key := MakeRateLimitKey("test", uuid.NewString())

	for i := 0; i < 3; i++ {
		res, err := c.TakeToken(ctx, key, 3, 1, time.Hour, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(2-i), res.Remaining)
	}

	res, err := c.TakeToken(ctx, key, 3, 1, time.Hour, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}
