package core

import "errors"

// Common errors.
var (
	// ErrAuth covers invalid credentials and failures while authenticating.
	ErrAuth = errors.New("authentication failed")

	// ErrUnknownAccount is returned by providers when no account matches an email.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrAccountExists is returned on sign-up for an email already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrStoreUnavailable marks network or service failures of the note store.
	ErrStoreUnavailable = errors.New("note store unavailable")

	// ErrNotFound is returned when an update or delete targets a missing note.
	ErrNotFound = errors.New("note not found")

	// ErrClipboard is returned when the system clipboard cannot be written.
	ErrClipboard = errors.New("clipboard unavailable")

	ErrInvalidID  = errors.New("note ID cannot be empty")
	ErrEmptyText  = errors.New("note text cannot be empty")
	ErrEmptyPatch = errors.New("patch has no fields")
	ErrNoSession  = errors.New("no active session")
)
