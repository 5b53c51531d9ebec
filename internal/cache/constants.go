package cache

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// key names definition
// key names in lua script should follow these formats
const (
	SeatLockKey               = "showtime:%s:seat:%s:lock"     // booking lock of one seat, value is the owner token
	ShowtimeAvailableSeatsKey = "showtime:%s:seats:available" // cached count of bookable seats of a showtime
	RateLimitKey              = "%s:%s"                       // token bucket state, prefix and caller identity
)

func MakeSeatLockKey(showtimeID, seatID uuid.UUID) string {
	return fmt.Sprintf(SeatLockKey, showtimeID, seatID)
}

func MakeShowtimeAvailableSeatsKey(showtimeID uuid.UUID) string {
	return fmt.Sprintf(ShowtimeAvailableSeatsKey, showtimeID)
}

func MakeRateLimitKey(prefix, identity string) string {
	return fmt.Sprintf(RateLimitKey, prefix, identity)
}

// errors
var (
	ErrSeatsLocked = errors.New("seats are being booked by another request")
	ErrCacheMiss   = errors.New("cache miss")
)

// lua scripts
var warmAvailableSeatsScript = redis.NewScript(`
-- ARGV: key1 value1 key2 value2 ... ttl_ms
local ttl = tonumber(ARGV[#ARGV])
for i = 1, #ARGV - 1, 2 do
    redis.call("SET", ARGV[i], tonumber(ARGV[i + 1]), "PX", ttl)
end
return (#ARGV - 1) / 2
`)

var lockSeatsScript = redis.NewScript(`
	-- KEYS[i] = showtime:{showtime_id}:seat:{seat_id}:lock
	-- ARGV[1] = owner token
	-- ARGV[2] = ttl in milliseconds

	-- all or nothing: refuse when any seat is held by someone else
	for i = 1, #KEYS do
		local holder = redis.call("GET", KEYS[i])
		if holder and holder ~= ARGV[1] then
			return -i
		end
	end

	for i = 1, #KEYS do
		redis.call("SET", KEYS[i], ARGV[1], "PX", tonumber(ARGV[2]))
	end
	return #KEYS
`)

var unlockSeatsScript = redis.NewScript(`
	-- KEYS[i] = showtime:{showtime_id}:seat:{seat_id}:lock
	-- ARGV[1] = owner token

	local released = 0
	for i = 1, #KEYS do
		if redis.call("GET", KEYS[i]) == ARGV[1] then
			redis.call("DEL", KEYS[i])
			released = released + 1
		end
	end
	return released
`)

var tokenBucketScript = redis.NewScript(`
	-- KEYS[1] = rate limit key
	-- ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_seconds

	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call("HMGET", key, "tokens", "last_refill_ms")
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call("HSET", key, "tokens", tokens, "last_refill_ms", last_refill)
	redis.call("EXPIRE", key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)
