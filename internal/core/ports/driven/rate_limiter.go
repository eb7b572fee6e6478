package driven

import (
	"context"
	"time"
)

// RateLimiter enforces a fixed-window request allowance per key
type RateLimiter interface {
	// Allow counts one request for key. When the allowance is spent it
	// returns false and how long until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)

	// Limit returns the allowance and window length
	Limit() (int, time.Duration)

	// Ping verifies the limiter backend is reachable
	Ping(ctx context.Context) error
}
