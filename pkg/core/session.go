package core

import (
	"context"
	"fmt"
	"time"
)

// Session is the authenticated identity of the current user.
// Absence of a session is represented by a nil *Session.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// SessionProvider is the port to the identity provider.
type SessionProvider interface {
	// SignIn verifies credentials and starts a session.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignUp registers a new account and starts a session for it.
	SignUp(ctx context.Context, email, password string) (Session, error)

	// SignOut ends the current session.
	SignOut(ctx context.Context) error

	// SendPasswordReset starts the password reset flow for email.
	SendPasswordReset(ctx context.Context, email string) error

	// OnSessionChange registers fn for every session transition.
	// The current state (nil when unauthenticated) is delivered synchronously
	// before OnSessionChange returns.
	OnSessionChange(fn func(*Session)) (unsubscribe func())
}

// SessionEvent records a session transition.
type SessionEvent struct {
	Session   *Session
	Timestamp int64 // Unix timestamp
}

// Authenticated reports whether the event carries a session.
func (e SessionEvent) Authenticated() bool {
	return e.Session != nil
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e SessionEvent) String() string {
	if e.Session == nil {
		return "session: signed out"
	}
	return fmt.Sprintf("session: signed in as %s", e.Session.Email)
}

// NewSessionEvent stamps a transition with the current time.
func NewSessionEvent(s *Session) SessionEvent {
	var cp *Session
	if s != nil {
		v := *s
		cp = &v
	}
	return SessionEvent{Session: cp, Timestamp: time.Now().Unix()}
}
