package jot

import (
	"context"
	"log/slog"

	"github.com/aretw0/jot/internal/platform"
	"github.com/aretw0/jot/pkg/adapters/identity"
	"github.com/aretw0/jot/pkg/notes"
)

// --- Types ---

// App is the wired application returned by Open.
type App = platform.App

// Config is the store connection configuration.
type Config = platform.Config

// Store is what the application needs from a storage adapter.
type Store = platform.Store

// ErrNotSignedIn is returned by App.Notes without a session.
var ErrNotSignedIn = platform.ErrNotSignedIn

// --- Configuration ---

// Option defines a functional option for configuring Open.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a custom storage adapter.
func WithStore(s Store) Option {
	return platform.WithStore(s)
}

// WithMailer sets where password reset links are delivered.
func WithMailer(m identity.Mailer) Option {
	return platform.WithMailer(m)
}

// WithClipboard overrides the system clipboard.
func WithClipboard(c notes.Clipboard) Option {
	return platform.WithClipboard(c)
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return platform.WithBcryptCost(cost)
}

// WithForceTemp forces the use of a temporary data directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the temp-dir sandbox of `go run` builds.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// DefaultConfig returns the built-in configuration (SQLite, project "default").
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig reads jot.yaml, .env and the JOT_* environment of dir.
func LoadConfig(dir string, getenv func(string) string) (Config, error) {
	return platform.LoadConfig(dir, getenv)
}

// Open connects the configured store and starts the session controller.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	return platform.Open(ctx, cfg, opts...)
}

// FindRoot looks upwards from startDir for a directory holding .jot or jot.yaml.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
