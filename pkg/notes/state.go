package notes

import (
	"slices"

	"github.com/aretw0/introspection"

	"github.com/aretw0/jot/pkg/core"
)

// FormMode is the state of the note form.
type FormMode string

const (
	FormHidden   FormMode = "hidden"
	FormCreating FormMode = "creating"
	FormEditing  FormMode = "editing"
)

// State is an immutable snapshot of the controller for presentation.
type State struct {
	Notes        []core.Note `json:"notes"`
	View         View        `json:"view"`
	Search       string      `json:"search"`
	Filter       Filter      `json:"filter"`
	Loading      bool        `json:"loading"`
	Loaded       bool        `json:"loaded"`
	Err          error       `json:"-"`
	ErrMessage   string      `json:"error,omitempty"`
	Draft        string      `json:"draft"`
	EditingID    string      `json:"editingId,omitempty"`
	Form         FormMode    `json:"form"`
	Deleting     []string    `json:"deleting,omitempty"`
	BumpID       string      `json:"bumpId,omitempty"`
	Toast        *Toast      `json:"toast,omitempty"`
	ConfirmClear bool        `json:"confirmClear"`
	DarkMode     bool        `json:"darkMode"`
}

// IsDeleting reports whether id is inside its delete grace delay.
func (s State) IsDeleting(id string) bool {
	return slices.Contains(s.Deleting, id)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	notes := slices.Clone(c.notes)
	st := State{
		Notes:        notes,
		View:         Derive(notes, c.search, c.filter),
		Search:       c.search,
		Filter:       c.filter,
		Loading:      c.loading,
		Loaded:       c.loaded,
		Err:          c.err,
		Draft:        c.draft,
		EditingID:    c.editingID,
		Form:         FormHidden,
		BumpID:       c.bumpID,
		ConfirmClear: c.confirmAll,
		DarkMode:     c.darkMode,
	}
	if c.err != nil {
		st.ErrMessage = c.err.Error()
	}
	if c.formVisible {
		st.Form = FormCreating
		if c.editingID != "" {
			st.Form = FormEditing
		}
	}
	for id := range c.deleting {
		st.Deleting = append(st.Deleting, id)
	}
	slices.Sort(st.Deleting)
	if c.toast != nil {
		t := *c.toast
		st.Toast = &t
	}
	return st
}

// State implements introspection.Introspectable.
func (c *Controller) State() any {
	return c.Snapshot()
}

// ComponentType implements introspection.Component.
func (c *Controller) ComponentType() string {
	return "notes-controller"
}

var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)
