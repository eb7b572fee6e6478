package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.RateLimiter = (*RateLimiter)(nil)

const rateLimitPrefix = "pdfqa:ratelimit:"

// RateLimiter implements a fixed-window counter shared by every instance
// that points at the same Redis.
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// scope separates counters of different endpoints, e.g. "upload".
func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: rateLimitPrefix + scope + ":",
		limit:  limit,
		window: window,
	}
}

// hitScript increments the counter and starts the window on the first hit.
// Returns {count, remaining ttl in ms}.
var hitScript = redis.NewScript(`
	local count = redis.call("incr", KEYS[1])
	if count == 1 then
		redis.call("pexpire", KEYS[1], ARGV[1])
	end
	local ttl = redis.call("pttl", KEYS[1])
	if ttl < 0 then
		redis.call("pexpire", KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// Allow counts one request for key.
// When the window is spent it returns false and the time until it resets.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := hitScript.Run(ctx, r.client, []string{r.prefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count > int64(r.limit) {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Limit returns the allowance and window length
func (r *RateLimiter) Limit() (int, time.Duration) {
	return r.limit, r.window
}

// Ping verifies Redis is reachable
func (r *RateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
