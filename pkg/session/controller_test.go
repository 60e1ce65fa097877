package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/session"
)

// fakeProvider is an in-memory core.SessionProvider.
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]string
	current  *core.Session
	subs     map[int]func(*core.Session)
	next     int

	signInErr error
	resetErr  error
	resets    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: map[string]string{"ada@example.com": "hunter22"},
		subs:     make(map[int]func(*core.Session)),
	}
}

func (p *fakeProvider) emit(s *core.Session) {
	p.mu.Lock()
	p.current = s
	fns := make([]func(*core.Session), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	p.mu.Lock()
	if p.signInErr != nil {
		err := p.signInErr
		p.mu.Unlock()
		return core.Session{}, err
	}
	want, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return core.Session{}, fmt.Errorf("sign in: %w", core.ErrUnknownAccount)
	}
	if want != password {
		return core.Session{}, fmt.Errorf("sign in: %w", core.ErrAuth)
	}
	s := core.Session{UserID: "u-" + email, Email: email}
	p.emit(&s)
	return s, nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (core.Session, error) {
	p.mu.Lock()
	if _, ok := p.accounts[email]; ok {
		p.mu.Unlock()
		return core.Session{}, core.ErrAccountExists
	}
	p.accounts[email] = password
	p.mu.Unlock()
	return p.SignIn(ctx, email, password)
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.emit(nil)
	return nil
}

func (p *fakeProvider) SendPasswordReset(ctx context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resetErr != nil {
		return p.resetErr
	}
	if _, ok := p.accounts[email]; !ok {
		return core.ErrUnknownAccount
	}
	p.resets = append(p.resets, email)
	return nil
}

func (p *fakeProvider) OnSessionChange(fn func(*core.Session)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func started(t *testing.T, p *fakeProvider) *session.Controller {
	t.Helper()
	c := session.New(p)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func TestController_StartResolvesInitialState(t *testing.T) {
	p := newFakeProvider()
	c := session.New(p)
	assert.False(t, c.Snapshot().Resolved)

	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	st := c.Snapshot()
	assert.True(t, st.Resolved)
	assert.False(t, st.Authenticated())
	assert.ErrorIs(t, c.Start(context.Background()), session.ErrAlreadyStarted)
	assert.Equal(t, 1, p.subscribers(), "subscription is installed once")
}

func TestController_StartWithExistingSession(t *testing.T) {
	p := newFakeProvider()
	p.current = &core.Session{UserID: "u1", Email: "ada@example.com"}

	c := started(t, p)
	require.NotNil(t, c.Current())
	assert.Equal(t, "u1", c.Current().UserID)
}

func TestController_Login(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider()
	c := started(t, p)

	require.NoError(t, c.Login(ctx, " ada@example.com ", "hunter22"))
	st := c.Snapshot()
	require.True(t, st.Authenticated())
	assert.Equal(t, "ada@example.com", st.Session.Email)
	assert.Empty(t, st.Error)
	assert.False(t, st.Busy)
}

func TestController_AuthFailuresShareOneMessage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(*session.Controller, *fakeProvider) error
	}{
		{"Wrong Password", func(c *session.Controller, _ *fakeProvider) error {
			return c.Login(ctx, "ada@example.com", "nope")
		}},
		{"Unknown Account", func(c *session.Controller, _ *fakeProvider) error {
			return c.Login(ctx, "bob@example.com", "hunter22")
		}},
		{"Network", func(c *session.Controller, p *fakeProvider) error {
			p.signInErr = errors.New("dial tcp: i/o timeout")
			return c.Login(ctx, "ada@example.com", "hunter22")
		}},
		{"Register Existing", func(c *session.Controller, _ *fakeProvider) error {
			return c.Register(ctx, "ada@example.com", "whatever")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			c := started(t, p)

			err := tt.run(c, p)
			require.ErrorIs(t, err, core.ErrAuth)

			st := c.Snapshot()
			assert.Equal(t, session.MsgBadCredentials, st.Error)
			assert.False(t, st.Authenticated())
			assert.False(t, st.Busy)
		})
	}
}

func TestController_MissingFields(t *testing.T) {
	p := newFakeProvider()
	c := started(t, p)

	err := c.Login(context.Background(), "  ", "x")
	require.ErrorIs(t, err, core.ErrAuth)
	assert.Equal(t, session.MsgMissingFields, c.Snapshot().Error)
}

func TestController_Register(t *testing.T) {
	p := newFakeProvider()
	c := started(t, p)

	require.NoError(t, c.Register(context.Background(), "grace@example.com", "cobol"))
	require.NotNil(t, c.Current())
	assert.Equal(t, "grace@example.com", c.Current().Email)
}

func TestController_Logout(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider()
	c := started(t, p)
	require.NoError(t, c.Login(ctx, "ada@example.com", "hunter22"))

	c.RequestLogout()
	assert.True(t, c.Snapshot().ConfirmLogout)
	c.CancelLogout()
	assert.False(t, c.Snapshot().ConfirmLogout)

	c.RequestLogout()
	require.NoError(t, c.Logout(ctx))
	st := c.Snapshot()
	assert.False(t, st.Authenticated())
	assert.False(t, st.ConfirmLogout)
}

func TestController_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Known Account", func(t *testing.T) {
		p := newFakeProvider()
		c := started(t, p)
		require.NoError(t, c.ResetPassword(ctx, "ada@example.com"))
		assert.Equal(t, session.MsgResetSent, c.Snapshot().Notice)
		assert.Equal(t, []string{"ada@example.com"}, p.resets)
	})

	t.Run("Unknown Account Is Not Revealed", func(t *testing.T) {
		p := newFakeProvider()
		c := started(t, p)
		require.NoError(t, c.ResetPassword(ctx, "nobody@example.com"))
		st := c.Snapshot()
		assert.Equal(t, session.MsgResetSent, st.Notice)
		assert.Empty(t, st.Error)
	})

	t.Run("Transport Failure Is Surfaced", func(t *testing.T) {
		p := newFakeProvider()
		p.resetErr = errors.New("smtp: connection refused")
		c := started(t, p)
		require.Error(t, c.ResetPassword(ctx, "ada@example.com"))
		st := c.Snapshot()
		assert.Equal(t, session.MsgResetFailed, st.Error)
		assert.Empty(t, st.Notice)
	})
}

func TestController_ExternalChange(t *testing.T) {
	p := newFakeProvider()
	c := started(t, p)

	var seen []session.State
	unsubscribe := c.Subscribe(func(st session.State) { seen = append(seen, st) })
	defer unsubscribe()

	// Another process signs in.
	p.emit(&core.Session{UserID: "u9", Email: "other@example.com"})
	require.NotEmpty(t, seen)
	assert.Equal(t, "u9", seen[len(seen)-1].Session.UserID)
}

func TestController_CloseUnsubscribes(t *testing.T) {
	p := newFakeProvider()
	c := session.New(p)
	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, 1, p.subscribers())

	c.Close()
	assert.Equal(t, 0, p.subscribers())
}

func TestController_Events(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newFakeProvider()
	c := started(t, p)
	events := c.Events(ctx, 4)

	require.NoError(t, c.Login(ctx, "ada@example.com", "hunter22"))
	require.NoError(t, c.Logout(ctx))

	first := <-events
	assert.True(t, first.Authenticated())
	assert.Equal(t, "session: signed in as ada@example.com", first.String())

	second := <-events
	assert.False(t, second.Authenticated())

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "stream closes when its context ends")
}

func TestController_EventsDropWhenFull(t *testing.T) {
	p := newFakeProvider()
	c := started(t, p)
	events := c.Events(context.Background(), 1)

	p.emit(&core.Session{UserID: "a"})
	p.emit(&core.Session{UserID: "b"}) // dropped, buffer full

	ev := <-events
	assert.Equal(t, "a", ev.Session.UserID)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
	assert.Equal(t, "b", c.Current().UserID, "state is still current")
}

func TestController_Introspection(t *testing.T) {
	c := started(t, newFakeProvider())
	_, ok := c.State().(session.State)
	assert.True(t, ok)
	assert.Equal(t, "session-controller", c.ComponentType())
}
