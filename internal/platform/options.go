package platform

import (
	"log/slog"

	"github.com/aretw0/jot/pkg/adapters/identity"
	"github.com/aretw0/jot/pkg/notes"
)

// options holds the internal configuration for Open.
type options struct {
	store      Store
	logger     *slog.Logger
	mailer     identity.Mailer
	clipboard  notes.Clipboard
	bcryptCost int
	devSafety  bool
	forceTemp  bool
}

// Option defines a functional option for configuring Open.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a custom store (e.g. memory.Store in tests).
// If provided, the configured adapter is skipped.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithMailer sets where password reset links are delivered.
// Defaults to identity.LogMailer.
func WithMailer(m identity.Mailer) Option {
	return func(o *options) {
		o.mailer = m
	}
}

// WithClipboard overrides the system clipboard.
func WithClipboard(c notes.Clipboard) Option {
	return func(o *options) {
		o.clipboard = c
	}
}

// WithBcryptCost sets the password hashing cost. Zero means the bcrypt default.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

// WithForceTemp forces the data directory under the system temp dir.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) such runs keep their data under the system temp dir.
//
// CAUTION: disabling it lets a dev build sign in to and modify real data.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
