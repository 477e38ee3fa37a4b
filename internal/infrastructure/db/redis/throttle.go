package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ednar28/user-admin/internal/core/ports"
)

// hitScript increments the counter and starts its window on the first hit,
// atomically. It returns the new count and the remaining TTL in milliseconds.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// Throttle is a fixed-window hit counter backed by Redis.
// Key format: throttle:<scope>:<key>
type Throttle struct {
	client *redis.Client
	scope  string
	max    int
	window time.Duration
}

// NewThrottle allows max hits per key within each window.
func NewThrottle(client *redis.Client, scope string, max int, window time.Duration) *Throttle {
	return &Throttle{client: client, scope: scope, max: max, window: window}
}

var _ ports.RateLimiter = (*Throttle)(nil)

// Allow records one hit for key. Once the limit is exceeded the decision
// carries the time left until the window resets.
func (t *Throttle) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	res, err := hitScript.Run(ctx, t.client, []string{t.key(key)}, t.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("throttle hit: %w", err)
	}
	if len(res) != 2 {
		return ports.RateDecision{}, fmt.Errorf("throttle hit: unexpected reply %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count > t.max {
		return ports.RateDecision{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}
	return ports.RateDecision{Allowed: true, Remaining: t.max - count}, nil
}

// Limit returns the maximum number of hits per window.
func (t *Throttle) Limit() int {
	return t.max
}

func (t *Throttle) key(key string) string {
	return fmt.Sprintf("throttle:%s:%s", t.scope, key)
}
