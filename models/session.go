package models

// SessionState tracks the lifecycle of the shared Jellyfin service session.
type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionAuthenticating  SessionState = "authenticating"
	SessionAuthenticated   SessionState = "authenticated"
)

// Session is the process-wide authenticated state toward the Jellyfin server.
// It is owned by the session manager and replaced wholesale on re-login.
type Session struct {
	Token  string       `json:"token"`
	UserID string       `json:"userId"`
	State  SessionState `json:"state"`
}

// Valid reports whether the session carries a usable access token.
func (s Session) Valid() bool {
	return s.State == SessionAuthenticated && s.Token != ""
}
