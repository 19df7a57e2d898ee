package rate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] = limiter key
// ARGV[1] = now (unix ms), ARGV[2] = window (s)
const cooldownScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local stored = redis.call("GET", KEYS[1])
if not stored then
  redis.call("SET", KEYS[1], ARGV[1], "EX", window)
  return 0
end
local elapsed = now - tonumber(stored)
if elapsed < 1000 then
  redis.call("SET", KEYS[1], ARGV[1], "EX", window)
  return window
end
local remaining = window - math.floor(elapsed / 1000)
if remaining < 0 then
  return 0
end
return remaining
`

// KEYS[1] = limiter key
// ARGV[1] = window (s), ARGV[2] = max calls
const fixedWindowScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  redis.call("SET", KEYS[1], 1, "EX", ARGV[1])
  return 0
end
if tonumber(current) > tonumber(ARGV[2]) then
  return 1
end
local ttl = redis.call("PTTL", KEYS[1])
redis.call("INCR", KEYS[1])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[1], ttl)
else
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return 0
`

var (
	cooldownLua    = redis.NewScript(cooldownScript)
	fixedWindowLua = redis.NewScript(fixedWindowScript)
)

// Limiter evaluates cooldown and fixed-window policies against Redis.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a [Limiter]. now may be nil, in which case time.Now is used.
func New(redisClient redis.UniversalClient, prefix string, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		now:    now,
	}
}

// Cooldown returns how many seconds the caller still has to wait for
// operation. Zero means the call is allowed and a new window was opened.
//
// A repeat within one second of the stored timestamp resets the window and
// returns the full window length.
func (l *Limiter) Cooldown(ctx context.Context, operation, caller string, window time.Duration) (int64, error) {
	seconds := int64(window / time.Second)
	if seconds <= 0 {
		return 0, ErrInvalidWindow
	}

	res, err := cooldownLua.Run(ctx, l.redis, []string{l.Key(operation, caller)},
		strconv.FormatInt(l.now().UnixMilli(), 10),
		strconv.FormatInt(seconds, 10),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return res, nil
}

// FixedWindow counts a call for operation/caller and reports whether the
// counter had already exceeded maxCalls. The window length is fixed by the
// first call; later calls never extend it.
func (l *Limiter) FixedWindow(ctx context.Context, operation, caller string, window time.Duration, maxCalls int) (bool, error) {
	seconds := int64(window / time.Second)
	if seconds <= 0 || maxCalls <= 0 {
		return false, ErrInvalidWindow
	}

	res, err := fixedWindowLua.Run(ctx, l.redis, []string{l.Key(operation, caller)},
		strconv.FormatInt(seconds, 10),
		strconv.Itoa(maxCalls),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return res == 1, nil
}

// Reset drops the limiter state for operation/caller.
func (l *Limiter) Reset(ctx context.Context, operation, caller string) error {
	if err := l.redis.Del(ctx, l.Key(operation, caller)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Key returns the Redis key used for operation/caller.
func (l *Limiter) Key(operation, caller string) string {
	sum := sha256.Sum256([]byte(operation + ":" + caller))
	return l.prefix + ":" + hex.EncodeToString(sum[:])
}
