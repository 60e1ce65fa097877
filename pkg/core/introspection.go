package core

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	UserID    string `json:"user_id"`
	StoreType string `json:"store_type"`
}

// State implements introspection.Introspectable.
func (r *NoteRepository) State() any {
	storeType := "unknown"
	if r.store != nil {
		storeType = "store"
		if comp, ok := r.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
	}
	return RepositoryState{
		UserID:    r.userID,
		StoreType: storeType,
	}
}

// ComponentType implements introspection.Component.
func (r *NoteRepository) ComponentType() string {
	return "note-repository"
}

var _ introspection.Introspectable = (*NoteRepository)(nil)
var _ introspection.Component = (*NoteRepository)(nil)
