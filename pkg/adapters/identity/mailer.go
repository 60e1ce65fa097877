package identity

import (
	"context"
	"log/slog"
	"sync"
)

// Mailer delivers password reset tokens to their owner.
type Mailer interface {
	SendReset(ctx context.Context, email, token string) error
}

// LogMailer is the default Mailer: it writes the reset token to the log,
// which is the outbox of a local installation.
type LogMailer struct {
	Logger *slog.Logger
}

// SendReset implements Mailer.
func (m LogMailer) SendReset(ctx context.Context, email, token string) error {
	if m.Logger == nil {
		return nil
	}
	m.Logger.InfoContext(ctx, "password reset requested",
		"email", email,
		"hint", "run `jot reset-password --token <token>` to choose a new password",
		"token", token,
	)
	return nil
}

// Outbox is a Mailer that keeps the last token per email in memory.
type Outbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

// SendReset implements Mailer.
func (o *Outbox) SendReset(ctx context.Context, email, token string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tokens == nil {
		o.tokens = make(map[string]string)
	}
	o.tokens[email] = token
	return nil
}

// Token returns the last token sent to email.
func (o *Outbox) Token(email string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.tokens[email]
	return t, ok
}
