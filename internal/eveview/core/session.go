package core

// Session is the opaque caller identity handle passed into workflow
// operations. The datastore only reads the username.
type Session struct {
	username string
}

// NewSession returns a session for the given username.
func NewSession(username string) *Session {
	return &Session{username: username}
}

// Username returns the acting username, or "anonymous" when the session
// carries no identity.
func (s *Session) Username() string {
	if s == nil || s.username == "" {
		return "anonymous"
	}
	return s.username
}
