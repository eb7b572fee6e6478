package domain

import (
	"sync"
	"time"
)

// Session gate defaults
const (
	DefaultSessionMessageLimit = 5
	DefaultSessionWindow       = 60 * time.Second
)

// ClientSession is the per-connection state of the query channel.
// It counts messages in a fixed window that opens at the first message
// after a reset and closes once more than Window has elapsed.
type ClientSession struct {
	ID          string
	ConnectedAt time.Time

	limit  int
	window time.Duration

	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// NewClientSession creates a session with the given message allowance.
// Non-positive values fall back to the defaults.
func NewClientSession(id string, limit int, window time.Duration, now time.Time) *ClientSession {
	if limit <= 0 {
		limit = DefaultSessionMessageLimit
	}
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &ClientSession{
		ID:          id,
		ConnectedAt: now,
		limit:       limit,
		window:      window,
	}
}

// Allow records one message at now and reports whether it is within the allowance.
// Rejected messages are not counted.
func (s *ClientSession) Allow(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.windowStart.IsZero() || now.Sub(s.windowStart) > s.window {
		s.windowStart = now
		s.count = 0
	}
	if s.count >= s.limit {
		return false
	}
	s.count++
	return true
}

// Remaining returns how many messages are left in the current window at now
func (s *ClientSession) Remaining(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.windowStart.IsZero() || now.Sub(s.windowStart) > s.window {
		return s.limit
	}
	return s.limit - s.count
}
