// Package core holds the domain of jot: notes, sessions, the ports to the
// external document store and identity provider, and the note repository
// that translates domain operations onto the store.
package core

import (
	"strings"
	"time"
)

// Note is the central entity of the domain.
// It is owned by exactly one user and is agnostic to storage format.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
}

// Visible reports whether the note may be shown to the user.
// Records without an id or with blank text are never displayed.
func (n Note) Visible() bool {
	return n.ID != "" && strings.TrimSpace(n.Text) != ""
}

// Draft carries the fields of a note that does not exist yet.
// The store assigns ID and CreatedAt on insert.
type Draft struct {
	Text     string
	Favorite bool
}

// Patch is a partial update. Nil fields are left untouched by the store.
type Patch struct {
	Text     *string `json:"text,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// TextPatch builds a Patch that only replaces the text.
func TextPatch(text string) Patch {
	return Patch{Text: &text}
}

// FavoritePatch builds a Patch that only sets the favorite flag.
func FavoritePatch(favorite bool) Patch {
	return Patch{Favorite: &favorite}
}

// Empty reports whether the patch carries no field.
func (p Patch) Empty() bool {
	return p.Text == nil && p.Favorite == nil
}

// Apply merges the patch into n and returns the result.
func (p Patch) Apply(n Note) Note {
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.Favorite != nil {
		n.Favorite = *p.Favorite
	}
	return n
}
