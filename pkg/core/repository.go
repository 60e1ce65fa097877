package core

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// NoteRepository maps domain operations onto NoteStore calls for one user.
// It owns no state and performs no retries; failures propagate to the caller.
type NoteRepository struct {
	store  NoteStore
	userID string
	logger *slog.Logger
}

// NewRepository binds store to the user of session.
func NewRepository(store NoteStore, session Session, logger *slog.Logger) *NoteRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &NoteRepository{
		store:  store,
		userID: session.UserID,
		logger: logger.With("user", session.UserID),
	}
}

// UserID returns the owner the repository is scoped to.
func (r *NoteRepository) UserID() string {
	return r.userID
}

// List returns all notes ascending by creation time, as stored.
func (r *NoteRepository) List(ctx context.Context) ([]Note, error) {
	if r.userID == "" {
		return nil, ErrNoSession
	}
	notes, err := r.store.Query(ctx, r.userID)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("listed notes", "count", len(notes))
	return notes, nil
}

// Create inserts a note with favorite=false.
func (r *NoteRepository) Create(ctx context.Context, text string) (Note, error) {
	return r.Insert(ctx, Draft{Text: text})
}

// Insert creates a note from a full draft.
func (r *NoteRepository) Insert(ctx context.Context, d Draft) (Note, error) {
	if r.userID == "" {
		return Note{}, ErrNoSession
	}
	if strings.TrimSpace(d.Text) == "" {
		return Note{}, ErrEmptyText
	}
	n, err := r.store.Insert(ctx, r.userID, d)
	if err != nil {
		return Note{}, err
	}
	r.logger.Debug("created note", "id", n.ID)
	return n, nil
}

// Update merges only the fields present in p.
func (r *NoteRepository) Update(ctx context.Context, id string, p Patch) error {
	if r.userID == "" {
		return ErrNoSession
	}
	if id == "" {
		return ErrInvalidID
	}
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return ErrEmptyText
	}
	if err := r.store.Update(ctx, r.userID, id, p); err != nil {
		return err
	}
	r.logger.Debug("updated note", "id", id)
	return nil
}

// Delete removes a note by its ID.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	if r.userID == "" {
		return ErrNoSession
	}
	if id == "" {
		return ErrInvalidID
	}
	if err := r.store.Delete(ctx, r.userID, id); err != nil {
		return err
	}
	r.logger.Debug("deleted note", "id", id)
	return nil
}
