package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter, starting the window on
// the first hit, and returns the count with the window's remaining PTTL.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

const redisTimeout = 250 * time.Millisecond

// RedisCounter is a Counter backed by a Redis fixed-window script.
type RedisCounter struct {
	client redis.Scripter
	script *redis.Script
}

// NewRedisCounter returns a counter using client. A nil client yields nil.
func NewRedisCounter(client redis.Scripter) *RedisCounter {
	if client == nil {
		return nil
	}
	return &RedisCounter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
	}
}

// Incr implements Counter.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if c == nil {
		return 0, 0, errors.New("redis counter not configured")
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	vals, err := c.script.Run(ctx, c.client, []string{key}, ttl).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script reply: %v", vals)
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}
