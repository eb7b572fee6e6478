package mocks

import (
	"context"
	"sync"
	"time"
)

// MockRateLimiter is a mock implementation of RateLimiter for testing.
// It allows Max requests per key and never resets.
type MockRateLimiter struct {
	mu     sync.Mutex
	Max    int
	Window time.Duration
	counts map[string]int
	Err    error
}

// NewMockRateLimiter creates a limiter allowing max requests per key
func NewMockRateLimiter(max int) *MockRateLimiter {
	return &MockRateLimiter{Max: max, Window: time.Minute, counts: make(map[string]int)}
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, 0, m.Err
	}
	m.counts[key]++
	if m.counts[key] > m.Max {
		return false, m.Window, nil
	}
	return true, 0, nil
}

func (m *MockRateLimiter) Limit() (int, time.Duration) {
	return m.Max, m.Window
}

func (m *MockRateLimiter) Ping(ctx context.Context) error {
	return m.Err
}
