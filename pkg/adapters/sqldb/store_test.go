package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aretw0/jot/pkg/core"
)

func TestRebind(t *testing.T) {
	q := `UPDATE notes SET text = ? WHERE project = ? AND id = ?`

	lite := &Store{driver: DriverSQLite}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite query rewritten: %s", got)
	}

	pg := &Store{driver: DriverPostgres}
	want := `UPDATE notes SET text = $1 WHERE project = $2 AND id = $3`
	if got := pg.rebind(q); got != want {
		t.Errorf("rebind = %s, want %s", got, want)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"Connection", errors.New("connection reset by peer"), core.ErrStoreUnavailable},
		{"SQLite Unique", errors.New("constraint failed: UNIQUE constraint failed: accounts.project, accounts.email (2067)"), core.ErrAccountExists},
		{"Postgres Unique", &pgconn.PgError{Code: "23505"}, core.ErrAccountExists},
		{"Cancelled", context.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
	if classify("op", nil) != nil {
		t.Error("nil error must stay nil")
	}
}

func TestOpen_InjectedFailure(t *testing.T) {
	orig := openDB
	defer func() { openDB = orig }()
	openDB = func(driver, dsn string) (*sql.DB, error) {
		return nil, fmt.Errorf("boom")
	}

	_, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "x.db")})
	if err == nil {
		t.Fatal("expected open error")
	}
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Config{}); err == nil {
		t.Error("expected error for empty DSN")
	}
	if _, err := Open(ctx, Config{Driver: "oracle", DSN: "x"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestNextTime_StrictlyIncreasing(t *testing.T) {
	s := &Store{}
	prev := s.nextTime()
	for range 1000 {
		next := s.nextTime()
		if next <= prev {
			t.Fatalf("nextTime went backwards: %d <= %d", next, prev)
		}
		prev = next
	}
}
