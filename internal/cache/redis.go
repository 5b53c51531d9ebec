package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache accepts either a redis:// URL or a bare host:port address.
func NewRedisCache(url string) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     url,
		Password: "",
		DB:       0,
	}
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{Client: client}, nil
}

func (r *RedisCache) Close() error {
	return r.Client.Close()
}

/*
* available seats of a showtime
 */

// WarmAvailableSeats overwrites the cached counters of the given showtimes.
func (r *RedisCache) WarmAvailableSeats(ctx context.Context, counts map[uuid.UUID]int, ttl time.Duration) error {
	if len(counts) == 0 {
		return nil
	}
	args := make([]any, 0, len(counts)*2+1)
	for showtimeID, count := range counts {
		args = append(args, MakeShowtimeAvailableSeatsKey(showtimeID), count)
	}
	args = append(args, ttl.Milliseconds())
	return warmAvailableSeatsScript.Run(ctx, r.Client, []string{}, args...).Err()
}

func (r *RedisCache) GetAvailableSeats(ctx context.Context, showtimeID uuid.UUID) (int, error) {
	n, err := r.Client.Get(ctx, MakeShowtimeAvailableSeatsKey(showtimeID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, err
	}
	return n, nil
}

func (r *RedisCache) SetAvailableSeats(ctx context.Context, showtimeID uuid.UUID, count int, ttl time.Duration) error {
	return r.Client.Set(ctx, MakeShowtimeAvailableSeatsKey(showtimeID), count, ttl).Err()
}

// FillAvailableSeats writes the counter only when no value is cached. Readers that
// counted rows on a miss use it so they never overwrite a fresher count.
func (r *RedisCache) FillAvailableSeats(ctx context.Context, showtimeID uuid.UUID, count int, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, MakeShowtimeAvailableSeatsKey(showtimeID), count, ttl).Result()
}

func (r *RedisCache) InvalidateAvailableSeats(ctx context.Context, showtimeID uuid.UUID) error {
	return r.Client.Del(ctx, MakeShowtimeAvailableSeatsKey(showtimeID)).Err()
}

/*
* seat booking locks
 */

// LockSeats takes the booking lock of every seat for owner, or none of them.
// It returns ErrSeatsLocked when another owner holds any of the seats.
func (r *RedisCache) LockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID, owner string, ttl time.Duration) error {
	if len(seatIDs) == 0 {
		return nil
	}
	res, err := lockSeatsScript.Run(ctx, r.Client, seatLockKeys(showtimeID, seatIDs), owner, ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if res < 0 {
		return ErrSeatsLocked
	}
	return nil
}

// UnlockSeats releases only the locks still held by owner.
func (r *RedisCache) UnlockSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID, owner string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	return unlockSeatsScript.Run(ctx, r.Client, seatLockKeys(showtimeID, seatIDs), owner).Err()
}

func seatLockKeys(showtimeID uuid.UUID, seatIDs []uuid.UUID) []string {
	keys := make([]string, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		keys = append(keys, MakeSeatLockKey(showtimeID, seatID))
	}
	return keys
}

/*
* rate limiting
 */

type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// TakeToken consumes one token from the bucket stored under key.
func (r *RedisCache) TakeToken(ctx context.Context, key string, capacity, refillTokens int, interval, ttl time.Duration) (RateLimitResult, error) {
	vals, err := tokenBucketScript.Run(ctx, r.Client, []string{key},
		time.Now().UnixMilli(),
		capacity,
		refillTokens,
		interval.Milliseconds(),
		int64(ttl/time.Second),
	).Int64Slice()
	if err != nil {
		return RateLimitResult{}, err
	}
	if len(vals) != 3 {
		return RateLimitResult{}, fmt.Errorf("unexpected rate limit result %v", vals)
	}
	return RateLimitResult{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
