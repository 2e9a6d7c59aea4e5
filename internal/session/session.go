// Package session holds the acting user: a client-side role selector that is
// attached to every outbound request and used for local affordance checks.
// It has no server-side lifecycle.
package session

import (
	"slices"
	"sync"

	apierrors "github.com/disasterwatch/client/internal/errors"
)

// Session is safe for concurrent use; the gateway reads it on every request
// while the operator may switch users at any time.
type Session struct {
	mu      sync.RWMutex
	current string
	roster  []string
	admins  []string
}

// New builds a Session. An empty roster accepts any non-empty user.
func New(current string, roster, admins []string) (*Session, error) {
	s := &Session{
		roster: slices.Clone(roster),
		admins: slices.Clone(admins),
	}
	if err := s.Set(current); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the acting user.
func (s *Session) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set switches the acting user; it must be on the roster.
func (s *Session) Set(user string) error {
	if user == "" {
		return apierrors.NewValidationError("user", "user is required")
	}
	if len(s.roster) > 0 && !slices.Contains(s.roster, user) {
		return apierrors.NewValidationError("user", "unknown user "+user)
	}
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
	return nil
}

// Roster returns a copy of the selectable users.
func (s *Session) Roster() []string { return slices.Clone(s.roster) }

// Admins returns a copy of the users allowed to act on any record.
func (s *Session) Admins() []string { return slices.Clone(s.admins) }

// IsAdmin reports whether the acting user is an administrator.
func (s *Session) IsAdmin() bool {
	return slices.Contains(s.admins, s.Current())
}

// CanModify reports whether the acting user may delete a record owned by
// owner. Only the owner or an administrator is offered the affordance.
func (s *Session) CanModify(owner string) bool {
	return CanModify(s.Current(), owner, s.admins)
}

// CanModify is the pure form of Session.CanModify.
func CanModify(user, owner string, admins []string) bool {
	if user == "" {
		return false
	}
	return user == owner || slices.Contains(admins, user)
}
