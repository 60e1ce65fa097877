package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/introspection"

	"github.com/aretw0/jot/pkg/adapters/clipboard"
	"github.com/aretw0/jot/pkg/adapters/identity"
	"github.com/aretw0/jot/pkg/adapters/memory"
	"github.com/aretw0/jot/pkg/adapters/sqldb"
	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/notes"
	"github.com/aretw0/jot/pkg/session"
)

// Store is what the application needs from a storage adapter.
type Store interface {
	core.NoteStore
	core.AccountStore
}

// ErrNotSignedIn is returned by App.Notes without a session.
var ErrNotSignedIn = errors.New("not signed in")

// App is the wired application: one store, one identity provider and one
// session controller. Note controllers are created per signed-in user.
type App struct {
	Config   Config
	DataDir  string
	Store    Store
	Provider *identity.Provider
	Session  *session.Controller
	Logger   *slog.Logger

	clipboard notes.Clipboard
}

// Open resolves the data directory, connects the configured store, creates
// its schema and starts the session controller.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	dataDir := ResolveDataDir(cfg.DataDir, useTemp)
	if useTemp {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", cfg.DataDir, "resolved_path", dataDir)
	} else if IsDevRun() {
		o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", dataDir)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := openStore(ctx, cfg, dataDir, o)
	if err != nil {
		return nil, err
	}
	if initializer, ok := store.(core.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			closeStore(store)
			return nil, err
		}
	}

	secret, err := EnsureSecret(cfg, dataDir)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	// A memory store forgets its accounts on exit, so its sessions must not outlive the process.
	sessionFile := filepath.Join(dataDir, SessionFileName)
	if cfg.Adapter == AdapterMemory && o.store == nil {
		sessionFile = ""
	}

	provider, err := identity.New(identity.Config{
		Accounts:    store,
		Secret:      secret,
		SessionFile: sessionFile,
		BcryptCost:  o.bcryptCost,
		Mailer:      o.mailer,
		Logger:      o.logger,
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	ctrl := session.New(provider, session.WithLogger(o.logger))
	if err := ctrl.Start(ctx); err != nil {
		closeStore(store)
		return nil, err
	}

	clip := o.clipboard
	if clip == nil {
		clip = clipboard.System{}
	}

	o.logger.Debug("application opened", "adapter", cfg.Adapter, "project", cfg.Project, "data_dir", dataDir)
	return &App{
		Config:    cfg,
		DataDir:   dataDir,
		Store:     store,
		Provider:  provider,
		Session:   ctrl,
		Logger:    o.logger,
		clipboard: clip,
	}, nil
}

func openStore(ctx context.Context, cfg Config, dataDir string, o *options) (Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	switch cfg.Adapter {
	case AdapterMemory:
		return memory.New(), nil
	case AdapterPostgres:
		return sqldb.Open(ctx, sqldb.Config{
			Driver:  sqldb.DriverPostgres,
			DSN:     cfg.DSN,
			Project: cfg.Project,
			Logger:  o.logger,
		})
	default:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join(dataDir, DatabaseFile)
		}
		return sqldb.Open(ctx, sqldb.Config{
			Driver:  sqldb.DriverSQLite,
			DSN:     dsn,
			Project: cfg.Project,
			Logger:  o.logger,
		})
	}
}

func closeStore(s Store) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

// Notes creates a note controller bound to the signed-in user. The caller
// loads and closes it.
func (a *App) Notes(opts ...notes.Option) (*notes.Controller, error) {
	s := a.Session.Current()
	if s == nil {
		return nil, ErrNotSignedIn
	}
	repo := core.NewRepository(a.Store, *s, a.Logger)
	base := []notes.Option{
		notes.WithLogger(a.Logger),
		notes.WithClipboard(a.clipboard),
	}
	return notes.New(repo, append(base, opts...)...), nil
}

// Watch follows sign-ins and sign-outs made by other processes.
func (a *App) Watch(ctx context.Context) error {
	return a.Provider.Watch(ctx)
}

// Components lists the introspectable parts of the application.
func (a *App) Components() []introspection.Introspectable {
	list := []introspection.Introspectable{a.Session, a.Provider}
	if i, ok := a.Store.(introspection.Introspectable); ok {
		list = append(list, i)
	}
	return list
}

// Close stops the session controller and releases the store.
func (a *App) Close() error {
	a.Session.Close()
	if c, ok := a.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
