package sqldb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jot/pkg/adapters/sqldb"
	"github.com/aretw0/jot/pkg/core"
)

func openTemp(t *testing.T, project string) (*sqldb.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "jot.db")
	s := openAt(t, path, project)
	return s, path
}

func openAt(t *testing.T, path, project string) *sqldb.Store {
	t.Helper()
	ctx := context.Background()
	s, err := sqldb.Open(ctx, sqldb.Config{DSN: path, Project: project})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_NoteLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "")

	first, err := s.Insert(ctx, "u1", core.Draft{Text: "buy milk"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Favorite)

	second, err := s.Insert(ctx, "u1", core.Draft{Text: "call bob", Favorite: true})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "u2", core.Draft{Text: "not yours"})
	require.NoError(t, err)

	notes, err := s.Query(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, second.ID, notes[1].ID)
	assert.True(t, notes[1].Favorite)
	assert.True(t, notes[0].CreatedAt.Before(notes[1].CreatedAt))
	assert.True(t, first.CreatedAt.Equal(notes[0].CreatedAt))

	// Partial merge
	require.NoError(t, s.Update(ctx, "u1", first.ID, core.FavoritePatch(true)))
	require.NoError(t, s.Update(ctx, "u1", second.ID, core.TextPatch("call bob today")))
	notes, err = s.Query(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", notes[0].Text)
	assert.True(t, notes[0].Favorite)
	assert.Equal(t, "call bob today", notes[1].Text)
	assert.True(t, notes[1].Favorite)

	require.NoError(t, s.Delete(ctx, "u1", first.ID))
	notes, err = s.Query(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestSQLite_NotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "")

	n, err := s.Insert(ctx, "owner", core.Draft{Text: "private"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "owner", "missing"), core.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, "owner", "missing", core.TextPatch("x")), core.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "intruder", n.ID), core.ErrNotFound, "rows are scoped by user")
	assert.ErrorIs(t, s.Update(ctx, "owner", n.ID, core.Patch{}), core.ErrEmptyPatch)
}

func TestSQLite_ProjectsAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a := openAt(t, path, "alpha")
	_, err := a.Insert(ctx, "u1", core.Draft{Text: "alpha note"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b := openAt(t, path, "beta")
	notes, err := b.Query(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestSQLite_Persistence(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t, "p")
	_, err := s.Insert(ctx, "u1", core.Draft{Text: "survives"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openAt(t, path, "p")
	notes, err := reopened.Query(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "survives", notes[0].Text)
}

func TestSQLite_Accounts(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "")

	acc := core.Account{ID: "u1", Email: "Ada@Example.com", PasswordHash: []byte("hash-1")}
	require.NoError(t, s.CreateAccount(ctx, acc))
	err := s.CreateAccount(ctx, core.Account{ID: "u2", Email: "ada@example.com", PasswordHash: []byte("x")})
	assert.ErrorIs(t, err, core.ErrAccountExists)

	got, err := s.AccountByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, []byte("hash-1"), got.PasswordHash)

	require.NoError(t, s.SetPasswordHash(ctx, "u1", []byte("hash-2")))
	got, err = s.AccountByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash-2"), got.PasswordHash)

	_, err = s.AccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrUnknownAccount)
	assert.ErrorIs(t, s.SetPasswordHash(ctx, "ghost", []byte("x")), core.ErrUnknownAccount)
}

func TestSQLite_ClosedIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "")
	require.NoError(t, s.Close())

	_, err := s.Query(ctx, "u1")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}

func TestSQLite_State(t *testing.T) {
	s, _ := openTemp(t, "proj")
	st, ok := s.State().(sqldb.StoreState)
	require.True(t, ok)
	assert.Equal(t, sqldb.DriverSQLite, st.Driver)
	assert.Equal(t, "proj", st.Project)
	assert.Equal(t, "sql-store", s.ComponentType())
}
