package core

import (
	"context"
	"time"
)

// Account is a registered identity as kept by the local identity provider.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// AccountStore persists accounts for the local identity provider.
// Emails are compared case-insensitively.
type AccountStore interface {
	// CreateAccount stores a new account. Fails with ErrAccountExists if the email is taken.
	CreateAccount(ctx context.Context, a Account) error

	// AccountByEmail fails with ErrUnknownAccount if no account matches.
	AccountByEmail(ctx context.Context, email string) (Account, error)

	// SetPasswordHash replaces the hash of account id. Fails with ErrUnknownAccount.
	SetPasswordHash(ctx context.Context, id string, hash []byte) error
}
