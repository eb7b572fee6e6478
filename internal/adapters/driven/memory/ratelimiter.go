package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RateLimiter = (*RateLimiter)(nil)

type fixedWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window counter per key held in process memory.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*fixedWindow
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

// Allow counts one request for key
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) >= r.window {
		r.sweep(now)
		w = &fixedWindow{start: now}
		r.windows[key] = w
	}

	w.count++
	if w.count > r.limit {
		return false, w.start.Add(r.window).Sub(now), nil
	}
	return true, 0, nil
}

// sweep drops expired windows so idle keys do not accumulate.
func (r *RateLimiter) sweep(now time.Time) {
	for k, w := range r.windows {
		if now.Sub(w.start) >= r.window {
			delete(r.windows, k)
		}
	}
}

// Limit returns the allowance and window length
func (r *RateLimiter) Limit() (int, time.Duration) {
	return r.limit, r.window
}

// Ping always succeeds
func (r *RateLimiter) Ping(ctx context.Context) error {
	return nil
}
