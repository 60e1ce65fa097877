// Package jot is the Composition Root for the jot note client.
//
// It connects the note and session controllers (pkg/notes, pkg/session) with
// the storage and identity adapters using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// jot keeps short personal notes for a signed-in user. Controllers own the
// user-visible state (notes, toasts, confirmations) and talk to the outside
// world only through ports defined in pkg/core, so the same behavior runs
// against SQLite, Postgres or an in-memory store.
//
// Features:
//
//   - **Optimistic Favorites**: toggles render at once and roll back on failure.
//   - **Derived Views**: search, favorite filter and statistics computed from one snapshot.
//   - **Local Identity**: bcrypt accounts and a signed session shared by every process.
//   - **Markdown Transfer**: export and import notes as frontmatter documents.
//
// Usage:
//
//	app, err := jot.Open(ctx, jot.DefaultConfig(), jot.WithLogger(logger))
//	if err != nil { ... }
//	defer app.Close()
//
//	if err := app.Session.Login(ctx, "ada@example.com", "secret"); err != nil { ... }
//
//	notes, err := app.Notes()
//	_ = notes.Load(ctx)
//	_ = notes.Save(ctx, "buy milk")
package jot
