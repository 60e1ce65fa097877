// Package memory provides in-process implementations of the note and account
// stores. Nothing survives the process; it backs tests and embedded use.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/google/uuid"

	"github.com/aretw0/jot/pkg/core"
)

// Store implements core.NoteStore and core.AccountStore.
type Store struct {
	mu       sync.RWMutex
	notes    map[string][]core.Note // by user id, in insertion order
	accounts map[string]core.Account
	now      func() time.Time
	offline  bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		notes:    make(map[string][]core.Note),
		accounts: make(map[string]core.Account),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOffline makes every note operation fail with core.ErrStoreUnavailable.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.offline {
		return core.ErrStoreUnavailable
	}
	return nil
}

// Insert implements core.NoteStore.
func (s *Store) Insert(ctx context.Context, userID string, d core.Draft) (core.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return core.Note{}, err
	}
	n := core.Note{
		ID:        uuid.NewString(),
		Text:      d.Text,
		Favorite:  d.Favorite,
		CreatedAt: s.now().UTC(),
	}
	s.notes[userID] = append(s.notes[userID], n)
	return n, nil
}

// Update implements core.NoteStore.
func (s *Store) Update(ctx context.Context, userID, id string, p core.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	notes := s.notes[userID]
	i := slices.IndexFunc(notes, func(n core.Note) bool { return n.ID == id })
	if i < 0 {
		return core.ErrNotFound
	}
	notes[i] = p.Apply(notes[i])
	return nil
}

// Delete implements core.NoteStore.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	notes := s.notes[userID]
	i := slices.IndexFunc(notes, func(n core.Note) bool { return n.ID == id })
	if i < 0 {
		return core.ErrNotFound
	}
	s.notes[userID] = slices.Delete(notes, i, i+1)
	return nil
}

// Query implements core.NoteStore.
func (s *Store) Query(ctx context.Context, userID string) ([]core.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := slices.Clone(s.notes[userID])
	slices.SortStableFunc(out, func(a, b core.Note) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// CreateAccount implements core.AccountStore.
func (s *Store) CreateAccount(ctx context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := s.accounts[key]; ok {
		return core.ErrAccountExists
	}
	a.PasswordHash = slices.Clone(a.PasswordHash)
	s.accounts[key] = a
	return nil
}

// AccountByEmail implements core.AccountStore.
func (s *Store) AccountByEmail(ctx context.Context, email string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return core.Account{}, core.ErrUnknownAccount
	}
	return a, nil
}

// SetPasswordHash implements core.AccountStore.
func (s *Store) SetPasswordHash(ctx context.Context, id string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.accounts {
		if a.ID == id {
			a.PasswordHash = slices.Clone(hash)
			s.accounts[key] = a
			return nil
		}
	}
	return core.ErrUnknownAccount
}

// StoreState is the introspection snapshot of a Store.
type StoreState struct {
	Users    int  `json:"users"`
	Notes    int  `json:"notes"`
	Accounts int  `json:"accounts"`
	Offline  bool `json:"offline"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := StoreState{Users: len(s.notes), Accounts: len(s.accounts), Offline: s.offline}
	for _, ns := range s.notes {
		st.Notes += len(ns)
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var (
	_ core.NoteStore               = (*Store)(nil)
	_ core.AccountStore            = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
