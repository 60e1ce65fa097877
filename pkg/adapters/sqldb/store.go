// Package sqldb implements the note and account stores over database/sql.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, pure Go, the
// default) and "postgres" (pgx through its database/sql adapter) for a hosted
// store. Every row is scoped by a project identifier, so several projects
// can share one database.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/aretw0/jot/pkg/core"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultProject is used when Config.Project is empty.
const DefaultProject = "default"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config defines the connection parameters of a Store.
type Config struct {
	Driver  string // DriverSQLite (default) or DriverPostgres
	DSN     string // database file for sqlite, connection URL for postgres
	Project string
	Logger  *slog.Logger
}

// Store implements core.NoteStore and core.AccountStore on a SQL database.
type Store struct {
	db      *sql.DB
	driver  string
	project string
	logger  *slog.Logger

	mu       sync.Mutex
	lastTime int64 // last assigned created_at, keeps insertion order strict
}

// Open connects to the database described by cfg. Call Initialize to create
// the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Project == "" {
		cfg.Project = DefaultProject
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqldb: empty DSN")
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = openSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		db, err = openPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("sqldb: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	cfg.Logger.Debug("database opened", "driver", cfg.Driver, "project", cfg.Project)
	return &Store{
		db:      db,
		driver:  cfg.Driver,
		project: cfg.Project,
		logger:  cfg.Logger,
	}, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("sqldb: create data dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqldb: open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqldb: %s: %w", p, err)
		}
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: parse DSN: %w", err)
	}
	cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, network, addr)
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqldb: connect: %w: %v", core.ErrStoreUnavailable, err)
	}
	return db, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Initialize creates the tables if they don't exist.
func (s *Store) Initialize(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqldb: init schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		project    TEXT    NOT NULL,
		id         TEXT    NOT NULL,
		user_id    TEXT    NOT NULL,
		text       TEXT    NOT NULL,
		favorite   INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (project, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(project, user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		project       TEXT    NOT NULL,
		id            TEXT    NOT NULL,
		email         TEXT    NOT NULL,
		password_hash BLOB    NOT NULL,
		created_at    INTEGER NOT NULL,
		PRIMARY KEY (project, id),
		UNIQUE (project, email)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		project    TEXT    NOT NULL,
		id         TEXT    NOT NULL,
		user_id    TEXT    NOT NULL,
		text       TEXT    NOT NULL,
		favorite   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT  NOT NULL,
		PRIMARY KEY (project, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(project, user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		project       TEXT   NOT NULL,
		id            TEXT   NOT NULL,
		email         TEXT   NOT NULL,
		password_hash BYTEA  NOT NULL,
		created_at    BIGINT NOT NULL,
		PRIMARY KEY (project, id),
		UNIQUE (project, email)
	)`,
}

// rebind rewrites ? placeholders into the driver's syntax.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// classify maps a driver error onto the domain sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, core.ErrAccountExists)
	}
	return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nextTime returns a creation time strictly after every time handed out by
// this store, so notes inserted back to back keep their order.
func (s *Store) nextTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UnixNano()
	if now <= s.lastTime {
		now = s.lastTime + 1
	}
	s.lastTime = now
	return now
}

// StoreState is the introspection snapshot of a Store.
type StoreState struct {
	Driver          string `json:"driver"`
	Project         string `json:"project"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	stats := s.db.Stats()
	return StoreState{
		Driver:          s.driver,
		Project:         s.project,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sql-store"
}

var (
	_ core.NoteStore               = (*Store)(nil)
	_ core.AccountStore            = (*Store)(nil)
	_ core.Initializer             = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
