package core

import "context"

// NoteStore defines the contract of the external document store.
// Records are scoped by user; the store assigns ids and creation times.
// Adhering to this interface keeps the core independent of the storage
// mechanism (SQLite, Postgres, memory, a hosted document database).
type NoteStore interface {
	// Insert stores a new note for userID and returns it with ID and CreatedAt set.
	Insert(ctx context.Context, userID string, d Draft) (Note, error)

	// Update merges the fields of p into the note. Fails with ErrNotFound if id does not exist.
	Update(ctx context.Context, userID, id string, p Patch) error

	// Delete removes a note. Fails with ErrNotFound if id does not exist.
	Delete(ctx context.Context, userID, id string) error

	// Query returns every note of userID ordered by CreatedAt ascending.
	Query(ctx context.Context, userID string) ([]Note, error)
}

// Initializer is implemented by stores that need setup (schema migration, directories).
type Initializer interface {
	Initialize(ctx context.Context) error
}
