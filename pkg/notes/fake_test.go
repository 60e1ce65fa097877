package notes_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/jot/pkg/core"
)

var errOffline = fmt.Errorf("dial tcp: connection refused: %w", core.ErrStoreUnavailable)

// fakeRepo is an in-memory notes.Repository that records every call.
type fakeRepo struct {
	mu    sync.Mutex
	notes []core.Note
	seq   int
	calls []string

	listErrs   []error // consumed one per List call
	createErr  error
	updateErrs []error // consumed one per Update call
	deleteErr  error
	onUpdate   func(id string) // runs before the update is applied
}

func newFakeRepo(texts ...string) *fakeRepo {
	r := &fakeRepo{}
	for _, t := range texts {
		r.add(t, false)
	}
	return r
}

func (r *fakeRepo) add(text string, favorite bool) core.Note {
	r.seq++
	n := core.Note{
		ID:        fmt.Sprintf("n%d", r.seq),
		Text:      text,
		Favorite:  favorite,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC),
	}
	r.notes = append(r.notes, n)
	return n
}

func (r *fakeRepo) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *fakeRepo) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (r *fakeRepo) callsWith(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeRepo) stored() []core.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Note(nil), r.notes...)
}

func (r *fakeRepo) List(ctx context.Context) ([]core.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("list")
	if len(r.listErrs) > 0 {
		err := r.listErrs[0]
		r.listErrs = r.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return append([]core.Note(nil), r.notes...), nil
}

func (r *fakeRepo) Create(ctx context.Context, text string) (core.Note, error) {
	return r.Insert(ctx, core.Draft{Text: text})
}

func (r *fakeRepo) Insert(ctx context.Context, d core.Draft) (core.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create:" + d.Text)
	if r.createErr != nil {
		return core.Note{}, r.createErr
	}
	return r.add(d.Text, d.Favorite), nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, p core.Patch) error {
	r.mu.Lock()
	r.record("update:" + id)
	hook := r.onUpdate
	r.onUpdate = nil
	var err error
	if len(r.updateErrs) > 0 {
		err = r.updateErrs[0]
		r.updateErrs = r.updateErrs[1:]
	}
	r.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notes {
		if n.ID == id {
			r.notes[i] = p.Apply(n)
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("delete:" + id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, n := range r.notes {
		if n.ID == id {
			r.notes = append(r.notes[:i], r.notes[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// fakeClipboard records the last write or fails.
type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

var errNoDisplay = errors.New("no clipboard utilities available")
