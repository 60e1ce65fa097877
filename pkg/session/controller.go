// Package session implements the session controller: the observable
// current-session state and the login, register, logout and password reset
// commands that drive the identity provider.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/jot/pkg/core"
)

// User-facing messages.
const (
	// MsgBadCredentials is shown for every login or register failure.
	MsgBadCredentials = "incorrect email or password"
	MsgResetSent      = "If an account exists for that email, a reset link is on its way"
	MsgResetFailed    = "Could not send the reset email, try again"
	MsgMissingFields  = "email and password are required"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("session controller already started")

// State is a snapshot of the session controller.
type State struct {
	Session       *core.Session `json:"session,omitempty"`
	Resolved      bool          `json:"resolved"` // the provider delivered its initial state
	Busy          bool          `json:"busy"`
	Error         string        `json:"error,omitempty"`
	Notice        string        `json:"notice,omitempty"`
	ConfirmLogout bool          `json:"confirmLogout"`
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.Session != nil
}

// Controller owns the current session. It is safe for concurrent use.
type Controller struct {
	provider core.SessionProvider
	logger   *slog.Logger

	mu            sync.Mutex
	started       bool
	closed        bool
	done          chan struct{}
	unsubscribe   func()
	session       *core.Session
	resolved      bool
	busy          bool
	errMsg        string
	notice        string
	confirmLogout bool

	subs    map[int]func(State)
	streams map[int]chan core.SessionEvent
	nextID  int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller over provider. Call Start to install the
// provider subscription.
func New(provider core.SessionProvider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		done:     make(chan struct{}),
		subs:     make(map[int]func(State)),
		streams:  make(map[int]chan core.SessionEvent),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Start installs the session-change subscription. The provider delivers its
// current state before Start returns, so Current is resolved afterwards.
// It may only be called once.
func (c *Controller) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	unsubscribe := c.provider.OnSessionChange(c.handleChange)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

// Close tears down the provider subscription and ends every event stream.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	for id, ch := range c.streams {
		close(ch)
		delete(c.streams, id)
	}
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Controller) handleChange(s *core.Session) {
	ev := core.NewSessionEvent(s)

	c.mu.Lock()
	c.session = ev.Session
	c.resolved = true
	if s == nil {
		c.confirmLogout = false
	}
	for id, ch := range c.streams {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("session event dropped, subscriber is not keeping up", "stream", id)
		}
	}
	c.mu.Unlock()

	c.logger.Debug("session changed", "event", ev.String())
	c.notify()
}

// Current returns the signed-in session, or nil.
func (c *Controller) Current() *core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Login signs in with email and password. Any failure is reported to the
// user as MsgBadCredentials; the returned error wraps core.ErrAuth.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "login", email, password, c.provider.SignIn)
}

// Register creates an account and signs in. Failures are reported exactly
// like Login failures.
func (c *Controller) Register(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "register", email, password, c.provider.SignUp)
}

type authFunc func(ctx context.Context, email, password string) (core.Session, error)

func (c *Controller) authenticate(ctx context.Context, op, email, password string, fn authFunc) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		c.finish(MsgMissingFields, "")
		return fmt.Errorf("%s: %w", op, core.ErrAuth)
	}

	c.begin()
	s, err := fn(ctx, email, password)
	if err != nil {
		c.logger.Warn("authentication failed", "op", op, "email", email, "error", err)
		c.finish(MsgBadCredentials, "")
		if errors.Is(err, core.ErrAuth) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %v", op, core.ErrAuth, err)
	}

	c.logger.Info("signed in", "op", op, "user", s.UserID)
	c.finish("", "")
	return nil
}

// ResetPassword asks the provider to send a reset link. Unknown accounts are
// not revealed: the notice is the same as on success. Transport failures are
// surfaced so the user can retry.
func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		c.finish("email is required", "")
		return fmt.Errorf("reset password: %w", core.ErrAuth)
	}

	c.begin()
	err := c.provider.SendPasswordReset(ctx, email)
	switch {
	case err == nil:
		c.finish("", MsgResetSent)
		return nil
	case errors.Is(err, core.ErrUnknownAccount):
		c.logger.Debug("reset requested for unknown account", "email", email)
		c.finish("", MsgResetSent)
		return nil
	default:
		c.logger.Error("password reset failed", "email", email, "error", err)
		c.finish(MsgResetFailed, "")
		return fmt.Errorf("reset password: %w", err)
	}
}

// RequestLogout arms the logout confirmation.
func (c *Controller) RequestLogout() {
	c.mu.Lock()
	c.confirmLogout = true
	c.mu.Unlock()
	c.notify()
}

// CancelLogout disarms the logout confirmation.
func (c *Controller) CancelLogout() {
	c.mu.Lock()
	c.confirmLogout = false
	c.mu.Unlock()
	c.notify()
}

// Logout ends the session. The session itself is cleared by the provider
// callback that follows.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.confirmLogout = false
	c.mu.Unlock()

	c.begin()
	if err := c.provider.SignOut(ctx); err != nil {
		c.logger.Error("sign out failed", "error", err)
		c.finish("Could not sign out, try again", "")
		return fmt.Errorf("logout: %w", err)
	}
	c.finish("", "")
	return nil
}

// ClearMessages removes the visible error and notice.
func (c *Controller) ClearMessages() {
	c.finish("", "")
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.busy = true
	c.errMsg = ""
	c.notice = ""
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) finish(errMsg, notice string) {
	c.mu.Lock()
	c.busy = false
	c.errMsg = errMsg
	c.notice = notice
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		Resolved:      c.resolved,
		Busy:          c.busy,
		Error:         c.errMsg,
		Notice:        c.notice,
		ConfirmLogout: c.confirmLogout,
	}
	if c.session != nil {
		s := *c.session
		st.Session = &s
	}
	return st
}

// Subscribe registers fn for every state change and returns its cancel func.
// fn runs outside the controller lock.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return
	}
	st := c.snapshotLocked()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Events streams session transitions until ctx is cancelled or the
// controller is closed. Events are dropped (and logged) when the buffer is full.
func (c *Controller) Events(ctx context.Context, buffer int) <-chan core.SessionEvent {
	ch := make(chan core.SessionEvent, max(buffer, 1))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	id := c.nextID
	c.nextID++
	c.streams[id] = ch
	c.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
		case <-c.done:
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.streams[id]; ok {
			delete(c.streams, id)
			close(ch)
		}
		return nil
	})
	return ch
}

// State implements introspection.Introspectable.
func (c *Controller) State() any {
	return c.Snapshot()
}

// ComponentType implements introspection.Component.
func (c *Controller) ComponentType() string {
	return "session-controller"
}

var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)
