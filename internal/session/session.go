// Package session holds the caller identity for one CLI invocation.
//
// A Session is opened explicitly with the token issued by the external
// identity provider and passed to the components that need it. Closing it
// clears the token so later requests go out unauthenticated.
package session

import (
	"os/user"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docverify/internal/config"
)

// Identity is the caller information a session carries.
type Identity struct {
	Token string
	User  string
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	id       string
	identity Identity
	openedAt time.Time
	closed   bool
}

// Open starts a session for identity.
func Open(identity Identity) *Session {
	identity.Token = strings.TrimSpace(identity.Token)
	identity.User = strings.TrimSpace(identity.User)
	return &Session{
		id:       uuid.NewString(),
		identity: identity,
		openedAt: time.Now(),
	}
}

// OpenFromConfig starts a session using the configured token and the local
// OS user as the reviewer identity.
func OpenFromConfig(cfg *config.Config) *Session {
	identity := Identity{}
	if cfg != nil {
		identity.Token = cfg.Service.APIToken
	}
	if current, err := user.Current(); err == nil {
		identity.User = current.Username
	}
	return Open(identity)
}

// ID returns the session correlation id.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Token returns the bearer token, or "" once closed.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ""
	}
	return s.identity.Token
}

// User returns the caller's user name, or "" once closed.
func (s *Session) User() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ""
	}
	return s.identity.User
}

// Authenticated reports whether requests will carry a bearer token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// OpenedAt returns when the session started.
func (s *Session) OpenedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.openedAt
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.identity = Identity{}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
