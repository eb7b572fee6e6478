package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// Ensure SessionManager implements SessionService
var _ driving.SessionService = (*SessionManager)(nil)

// SessionManager creates per-connection sessions and tracks the live ones.
type SessionManager struct {
	limit  int
	window time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*domain.ClientSession
}

// NewSessionManager creates a manager allowing limit messages per window per session
func NewSessionManager(limit int, window time.Duration, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		limit:    limit,
		window:   window,
		now:      time.Now,
		logger:   logger.With("component", "session"),
		sessions: make(map[string]*domain.ClientSession),
	}
}

// Open creates a session for a new connection
func (m *SessionManager) Open() *domain.ClientSession {
	s := domain.NewClientSession(uuid.NewString(), m.limit, m.window, m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	active := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug("session opened", "session_id", s.ID, "active", active)
	return s
}

// Close releases a session. Closing twice is a no-op.
func (m *SessionManager) Close(s *domain.ClientSession) {
	if s == nil {
		return
	}

	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	active := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("session closed",
			"session_id", s.ID,
			"active", active,
			"duration", m.now().Sub(s.ConnectedAt))
	}
}

// Admit applies the session's message allowance
func (m *SessionManager) Admit(s *domain.ClientSession) error {
	now := m.now()
	if !s.Allow(now) {
		m.logger.Debug("message rejected", "session_id", s.ID, "remaining", s.Remaining(now))
		return domain.ErrRateLimited
	}
	m.logger.Debug("message admitted", "session_id", s.ID, "remaining", s.Remaining(now))
	return nil
}

// Active returns the number of open sessions
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
