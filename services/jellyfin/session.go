package jellyfin

import (
	"context"
	"log"
	"sync"

	"jellybridge/models"
)

// LoginFunc performs the credential exchange against the Jellyfin server and
// returns a fresh session.
type LoginFunc func(ctx context.Context) (models.Session, error)

// SessionManager owns the shared service session. Logins are de-duplicated:
// the mutex is held across the exchange, so concurrent callers that observe a
// missing session wait for one login instead of issuing redundant ones.
type SessionManager struct {
	mu      sync.Mutex
	login   LoginFunc
	session models.Session
}

// NewSessionManager creates a manager that obtains sessions via login.
func NewSessionManager(login LoginFunc) *SessionManager {
	return &SessionManager{
		login:   login,
		session: models.Session{State: models.SessionUnauthenticated},
	}
}

// EnsureAuthenticated returns the current session, performing a login exchange
// first if none is valid. Sessions carry no TTL; they are assumed valid until
// an upstream call fails with an authorization error and Invalidate is called.
func (m *SessionManager) EnsureAuthenticated(ctx context.Context) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Valid() {
		return m.session, nil
	}

	m.session.State = models.SessionAuthenticating
	session, err := m.login(ctx)
	if err != nil {
		// Leave the session unauthenticated for the next attempt.
		m.session = models.Session{State: models.SessionUnauthenticated}
		return models.Session{}, err
	}

	session.State = models.SessionAuthenticated
	m.session = session
	log.Printf("[session] authenticated as user %s", session.UserID)
	return m.session, nil
}

// Invalidate clears the session, but only if it still carries the given
// token. A caller invalidating a stale token after a racing re-login does not
// destroy the fresh session.
func (m *SessionManager) Invalidate(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token != "" && m.session.Token != token {
		return
	}
	m.session = models.Session{State: models.SessionUnauthenticated}
}

// Current returns a snapshot of the session without triggering a login.
func (m *SessionManager) Current() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}
