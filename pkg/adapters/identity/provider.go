// Package identity implements a local core.SessionProvider.
//
// Passwords are stored as bcrypt hashes in a core.AccountStore. A successful
// sign-in issues a signed JWT that is persisted in a session file, so the
// session survives restarts and is shared by every jot process using the same
// data directory. Watch follows that file and reports sign-ins and sign-outs
// made by other processes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/jot/internal/fsutil"
	"github.com/aretw0/jot/pkg/core"
)

// MinPasswordLength is enforced on sign-up and password reset.
const MinPasswordLength = 6

// MinSecretLength is the minimum size of the token signing secret.
const MinSecretLength = 16

// Config defines the dependencies and tunables of a Provider.
type Config struct {
	Accounts    core.AccountStore
	Secret      []byte
	SessionFile string // empty keeps the session in memory only
	SessionTTL  time.Duration
	ResetTTL    time.Duration
	BcryptCost  int
	Mailer      Mailer
	Logger      *slog.Logger
	Now         func() time.Time
}

// Provider implements core.SessionProvider.
type Provider struct {
	accounts    core.AccountStore
	secret      []byte
	sessionFile string
	sessionTTL  time.Duration
	resetTTL    time.Duration
	cost        int
	mailer      Mailer
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	current  *core.Session
	subs     map[int]func(*core.Session)
	nextSub  int
	watching bool
}

// New creates a Provider and resolves the persisted session, if any.
func New(cfg Config) (*Provider, error) {
	if cfg.Accounts == nil {
		return nil, errors.New("identity: account store is required")
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("identity: secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Mailer == nil {
		cfg.Mailer = LogMailer{Logger: cfg.Logger}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	p := &Provider{
		accounts:    cfg.Accounts,
		secret:      slices.Clone(cfg.Secret),
		sessionFile: cfg.SessionFile,
		sessionTTL:  cfg.SessionTTL,
		resetTTL:    cfg.ResetTTL,
		cost:        cfg.BcryptCost,
		mailer:      cfg.Mailer,
		logger:      cfg.Logger,
		now:         cfg.Now,
		subs:        make(map[int]func(*core.Session)),
	}
	p.current = p.readSessionFile()
	return p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignIn implements core.SessionProvider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	email = normalizeEmail(email)
	acc, err := p.accounts.AccountByEmail(ctx, email)
	if err != nil {
		return core.Session{}, fmt.Errorf("sign in: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return core.Session{}, fmt.Errorf("sign in: %w", core.ErrAuth)
	}
	return p.start(core.Session{UserID: acc.ID, Email: acc.Email})
}

// SignUp implements core.SessionProvider.
func (p *Provider) SignUp(ctx context.Context, email, password string) (core.Session, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return core.Session{}, fmt.Errorf("sign up: %w: invalid email", core.ErrAuth)
	}
	if len(password) < MinPasswordLength {
		return core.Session{}, fmt.Errorf("sign up: %w: password shorter than %d characters", core.ErrAuth, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return core.Session{}, fmt.Errorf("sign up: hash password: %w", err)
	}
	acc := core.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	}
	if err := p.accounts.CreateAccount(ctx, acc); err != nil {
		return core.Session{}, fmt.Errorf("sign up: %w", err)
	}
	p.logger.Info("account created", "user", acc.ID)
	return p.start(core.Session{UserID: acc.ID, Email: acc.Email})
}

func (p *Provider) start(s core.Session) (core.Session, error) {
	token, err := p.sessionToken(s)
	if err != nil {
		return core.Session{}, err
	}
	if err := p.writeSessionFile(token); err != nil {
		return core.Session{}, err
	}
	p.set(&s)
	return s, nil
}

// SignOut implements core.SessionProvider.
func (p *Provider) SignOut(ctx context.Context) error {
	if p.sessionFile != "" {
		if err := os.Remove(p.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("sign out: %w", err)
		}
	}
	p.set(nil)
	return nil
}

// SendPasswordReset implements core.SessionProvider. It fails with
// core.ErrUnknownAccount when no account matches email.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	acc, err := p.accounts.AccountByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	token, err := p.resetToken(acc)
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	if err := p.mailer.SendReset(ctx, acc.Email, token); err != nil {
		return fmt.Errorf("password reset: send: %w", err)
	}
	return nil
}

// ResetPassword completes a reset started by SendPasswordReset. A token
// works once: the new hash invalidates it.
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("reset password: %w: password shorter than %d characters", core.ErrAuth, MinPasswordLength)
	}
	c, err := p.parse(token, purposeReset)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	acc, err := p.accounts.AccountByEmail(ctx, c.Email)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if acc.ID != c.Subject || fingerprint(acc.PasswordHash) != c.Fingerprint {
		return fmt.Errorf("reset password: %w: %w", core.ErrAuth, ErrTokenUsed)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	if err := p.accounts.SetPasswordHash(ctx, acc.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	p.logger.Info("password reset", "user", acc.ID)
	return nil
}

// OnSessionChange implements core.SessionProvider.
func (p *Provider) OnSessionChange(fn func(*core.Session)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	current := copySession(p.current)
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Current returns the active session, or nil.
func (p *Provider) Current() *core.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySession(p.current)
}

// set replaces the current session and notifies subscribers if it changed.
func (p *Provider) set(s *core.Session) {
	p.mu.Lock()
	if sameSession(p.current, s) {
		p.mu.Unlock()
		return
	}
	p.current = copySession(s)
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(*core.Session), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(copySession(s))
	}
}

func copySession(s *core.Session) *core.Session {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sameSession(a, b *core.Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (p *Provider) writeSessionFile(token string) error {
	if p.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.sessionFile), 0700); err != nil {
		return fmt.Errorf("session file: %w", err)
	}
	if err := fsutil.WriteFileAtomic(p.sessionFile, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("session file: %w", err)
	}
	return nil
}

// readSessionFile returns the persisted session, or nil when the file is
// missing, expired or signed with another secret.
func (p *Provider) readSessionFile() *core.Session {
	if p.sessionFile == "" {
		return nil
	}
	data, err := os.ReadFile(p.sessionFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("cannot read session file", "path", p.sessionFile, "error", err)
		}
		return nil
	}
	s, err := p.sessionFromToken(strings.TrimSpace(string(data)))
	if err != nil {
		p.logger.Debug("ignoring persisted session", "error", err)
		return nil
	}
	return s
}

// ProviderState is the introspection snapshot of a Provider.
type ProviderState struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	SessionFile   string `json:"session_file,omitempty"`
	Watching      bool   `json:"watching"`
	Subscribers   int    `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (p *Provider) State() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := ProviderState{
		Authenticated: p.current != nil,
		SessionFile:   p.sessionFile,
		Watching:      p.watching,
		Subscribers:   len(p.subs),
	}
	if p.current != nil {
		st.Email = p.current.Email
	}
	return st
}

// ComponentType implements introspection.Component.
func (p *Provider) ComponentType() string {
	return "identity-provider"
}

var (
	_ core.SessionProvider         = (*Provider)(nil)
	_ introspection.Introspectable = (*Provider)(nil)
	_ introspection.Component      = (*Provider)(nil)
)
