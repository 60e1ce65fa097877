package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/jot/pkg/core"
)

// Insert implements core.NoteStore.
func (s *Store) Insert(ctx context.Context, userID string, d core.Draft) (core.Note, error) {
	n := core.Note{
		ID:        uuid.NewString(),
		Text:      d.Text,
		Favorite:  d.Favorite,
		CreatedAt: time.Unix(0, s.nextTime()).UTC(),
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO notes (project, id, user_id, text, favorite, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		s.project, n.ID, userID, n.Text, n.Favorite, n.CreatedAt.UnixNano(),
	)
	if err != nil {
		return core.Note{}, classify("insert note", err)
	}
	s.logger.Debug("note inserted", "id", n.ID)
	return n, nil
}

// Update implements core.NoteStore. Only the fields set in p are written.
func (s *Store) Update(ctx context.Context, userID, id string, p core.Patch) error {
	var (
		sets []string
		args []any
	)
	if p.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *p.Text)
	}
	if p.Favorite != nil {
		sets = append(sets, "favorite = ?")
		args = append(args, *p.Favorite)
	}
	if len(sets) == 0 {
		return core.ErrEmptyPatch
	}
	args = append(args, s.project, userID, id)

	query := fmt.Sprintf(`UPDATE notes SET %s WHERE project = ? AND user_id = ? AND id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return classify("update note", err)
	}
	return expectOne(res, "update note")
}

// Delete implements core.NoteStore.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM notes WHERE project = ? AND user_id = ? AND id = ?`),
		s.project, userID, id,
	)
	if err != nil {
		return classify("delete note", err)
	}
	return expectOne(res, "delete note")
}

// Query implements core.NoteStore.
func (s *Store) Query(ctx context.Context, userID string) ([]core.Note, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, text, favorite, created_at FROM notes
		 WHERE project = ? AND user_id = ?
		 ORDER BY created_at ASC, id ASC`),
		s.project, userID,
	)
	if err != nil {
		return nil, classify("query notes", err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		var (
			n       core.Note
			created int64
		)
		if err := rows.Scan(&n.ID, &n.Text, &n.Favorite, &created); err != nil {
			return nil, classify("scan note", err)
		}
		n.CreatedAt = time.Unix(0, created).UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query notes", err)
	}
	return notes, nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func expectOne(res rowsAffected, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
