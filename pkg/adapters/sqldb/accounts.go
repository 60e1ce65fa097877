package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/jot/pkg/core"
)

// CreateAccount implements core.AccountStore.
func (s *Store) CreateAccount(ctx context.Context, a core.Account) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO accounts (project, id, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		s.project, a.ID, strings.ToLower(a.Email), a.PasswordHash, created.UnixNano(),
	)
	if err != nil {
		return classify("create account", err)
	}
	return nil
}

// AccountByEmail implements core.AccountStore.
func (s *Store) AccountByEmail(ctx context.Context, email string) (core.Account, error) {
	var (
		a       core.Account
		created int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, email, password_hash, created_at FROM accounts WHERE project = ? AND email = ?`),
		s.project, strings.ToLower(email),
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrUnknownAccount
	}
	if err != nil {
		return core.Account{}, classify("find account", err)
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	return a, nil
}

// SetPasswordHash implements core.AccountStore.
func (s *Store) SetPasswordHash(ctx context.Context, id string, hash []byte) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE accounts SET password_hash = ? WHERE project = ? AND id = ?`),
		hash, s.project, id,
	)
	if err != nil {
		return classify("set password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("set password", err)
	}
	if n == 0 {
		return fmt.Errorf("set password: %w", core.ErrUnknownAccount)
	}
	return nil
}
