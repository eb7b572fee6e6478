package driving

import (
	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// SessionService manages query channel sessions
type SessionService interface {
	// Open creates a session for a new connection
	Open() *domain.ClientSession

	// Close releases a session on disconnect
	Close(session *domain.ClientSession)

	// Admit applies the session's message allowance.
	// Returns domain.ErrRateLimited when the message must be rejected.
	Admit(session *domain.ClientSession) error

	// Active returns the number of open sessions
	Active() int
}
