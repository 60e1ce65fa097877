// Package notes implements the note controller: the in-memory note collection,
// its derived views, optimistic favorites and transient UI notifications.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/schedule"
)

// ErrNotConfirmed is returned by ClearAll when RequestClearAll was not called first.
var ErrNotConfirmed = errors.New("clear all requires confirmation")

// Repository is the subset of core.NoteRepository the controller depends on.
type Repository interface {
	List(ctx context.Context) ([]core.Note, error)
	Create(ctx context.Context, text string) (core.Note, error)
	Insert(ctx context.Context, d core.Draft) (core.Note, error)
	Update(ctx context.Context, id string, p core.Patch) error
	Delete(ctx context.Context, id string) error
}

// favoriteOp is the in-flight optimistic toggle of one note.
type favoriteOp struct {
	token uint64
	want  bool
	// reconcile is set when an older toggle of the same note failed while
	// this one was pending; its own prev value is then unreliable.
	reconcile bool
}

// Controller holds the note collection of one session and the UI-facing
// state derived from it. Store calls are never made while holding mu.
type Controller struct {
	repo    Repository
	clip    Clipboard
	sched   schedule.Scheduler
	logger  *slog.Logger
	timings Timings
	retry   Retry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	notes       []core.Note
	loading     bool
	loaded      bool
	err         error
	search      string
	filter      Filter
	draft       string
	editingID   string
	formVisible bool
	deleting    map[string]schedule.Handle
	favorites   map[string]favoriteOp
	favSeq      uint64
	bumpID      string
	bumpTimer   transient
	toast       *Toast
	toastTimer  transient
	confirmAll  bool
	darkMode    bool

	subs    map[int]func(State)
	nextSub int
}

// New creates a Controller over repo. Call Load to fetch the notes.
func New(repo Repository, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(o.ctx)
	return &Controller{
		repo:      repo,
		clip:      o.clipboard,
		sched:     o.scheduler,
		logger:    o.logger,
		timings:   o.timings,
		retry:     o.retry,
		ctx:       ctx,
		cancel:    cancel,
		loading:   true,
		filter:    FilterAll,
		deleting:  make(map[string]schedule.Handle),
		favorites: make(map[string]favoriteOp),
		darkMode:  true,
		subs:      make(map[int]func(State)),
	}
}

// Load fetches every note of the session and replaces the collection.
// ErrStoreUnavailable is retried with exponential backoff; the final failure
// leaves the previous collection in place and sets a retryable error state.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	c.notify()

	notes, err := c.listWithRetry(ctx)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.err = err
		c.showToastLocked(errorMessage(err), true, c.timings.ErrorToast)
	} else {
		c.err = nil
		c.loaded = true
		c.notes = c.withPendingLocked(notes)
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Error("load failed", "error", err)
		return fmt.Errorf("load notes: %w", err)
	}
	return nil
}

func (c *Controller) listWithRetry(ctx context.Context) ([]core.Note, error) {
	attempts := max(c.retry.Attempts, 1)
	delay := c.retry.Backoff
	for attempt := 1; ; attempt++ {
		notes, err := c.repo.List(ctx)
		if err == nil || !errors.Is(err, core.ErrStoreUnavailable) || attempt >= attempts {
			return notes, err
		}
		c.logger.Warn("load failed, retrying", "attempt", attempt, "backoff", delay, "error", err)
		if err := c.wait(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
}

// wait blocks for d on the controller's scheduler, or until ctx or the
// controller is done.
func (c *Controller) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	elapsed := make(chan struct{})
	h := c.sched.AfterFunc(d, func() { close(elapsed) })
	defer h.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return c.ctx.Err()
	case <-elapsed:
		return nil
	}
}

// withPendingLocked keeps optimistic favorites of in-flight toggles on top of
// freshly loaded notes. Caller holds c.mu.
func (c *Controller) withPendingLocked(notes []core.Note) []core.Note {
	if len(c.favorites) == 0 {
		return notes
	}
	for i, n := range notes {
		if op, ok := c.favorites[n.ID]; ok {
			notes[i].Favorite = op.want
		}
	}
	return notes
}

// reload resynchronizes with the store after a mutation.
// Its failure is already surfaced through the error state and a toast.
func (c *Controller) reload(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		c.logger.Debug("reload after mutation failed", "error", err)
	}
}

// fail surfaces err as a toast (and error state for store outages).
// ErrNotFound triggers a reload, since the note was removed elsewhere.
func (c *Controller) fail(ctx context.Context, op string, err error) error {
	c.logger.Warn("command failed", "op", op, "error", err)

	c.mu.Lock()
	if errors.Is(err, core.ErrStoreUnavailable) {
		c.err = err
	}
	c.showToastLocked(errorMessage(err), true, c.timings.ErrorToast)
	c.mu.Unlock()
	c.notify()

	if errors.Is(err, core.ErrNotFound) {
		c.reload(ctx)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Save creates a note, or updates the note being edited. Blank text is a no-op.
func (c *Controller) Save(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	editingID := c.editingID
	c.mu.Unlock()

	var err error
	if editingID != "" {
		err = c.repo.Update(ctx, editingID, core.TextPatch(text))
	} else {
		_, err = c.repo.Create(ctx, text)
	}

	if err != nil {
		if editingID != "" && errors.Is(err, core.ErrNotFound) {
			c.mu.Lock()
			if c.editingID == editingID {
				c.editingID = ""
			}
			c.mu.Unlock()
		}
		return c.fail(ctx, "save", err)
	}

	c.mu.Lock()
	if c.editingID == editingID {
		c.editingID = ""
	}
	c.draft = ""
	c.formVisible = false
	msg := MsgAdded
	if editingID != "" {
		msg = MsgUpdated
	}
	c.showToastLocked(msg, false, c.timings.SaveToast)
	c.mu.Unlock()
	c.notify()

	c.reload(ctx)
	return nil
}

// SetDraft replaces the text buffer of the note form.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
	c.notify()
}

// SaveDraft saves the text buffer.
func (c *Controller) SaveDraft(ctx context.Context) error {
	c.mu.Lock()
	text := c.draft
	c.mu.Unlock()
	return c.Save(ctx, text)
}

// StartEdit loads note into the form for editing.
func (c *Controller) StartEdit(note core.Note) {
	c.mu.Lock()
	c.draft = note.Text
	c.editingID = note.ID
	c.formVisible = true
	c.mu.Unlock()
	c.notify()
}

// OpenForm shows an empty form for a new note, abandoning any edit.
func (c *Controller) OpenForm() {
	c.mu.Lock()
	if c.editingID != "" {
		c.editingID = ""
		c.draft = ""
	}
	c.formVisible = true
	c.mu.Unlock()
	c.notify()
}

// ToggleForm flips form visibility, abandoning any edit in progress.
func (c *Controller) ToggleForm() {
	c.mu.Lock()
	c.formVisible = !c.formVisible
	if c.editingID != "" {
		c.editingID = ""
		c.draft = ""
	}
	c.mu.Unlock()
	c.notify()
}

// CancelForm hides the form and discards the draft.
func (c *Controller) CancelForm() {
	c.mu.Lock()
	c.formVisible = false
	c.draft = ""
	c.editingID = ""
	c.mu.Unlock()
	c.notify()
}

// Remove marks id as pending-delete and deletes it once the grace delay has
// elapsed, then reloads. It reports false if id is already pending.
func (c *Controller) Remove(id string) bool {
	c.mu.Lock()
	if c.closed || id == "" {
		c.mu.Unlock()
		return false
	}
	if _, pending := c.deleting[id]; pending {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.deleting[id] = c.sched.AfterFunc(c.timings.DeleteGrace, func() {
		defer c.wg.Done()
		c.finishRemove(id)
	})
	c.mu.Unlock()
	c.notify()
	return true
}

func (c *Controller) finishRemove(id string) {
	ctx := c.ctx
	err := c.repo.Delete(ctx, id)

	c.mu.Lock()
	delete(c.deleting, id)
	c.mu.Unlock()

	if err != nil && !errors.Is(err, core.ErrNotFound) {
		_ = c.fail(ctx, "remove", err)
		return
	}
	c.reload(ctx)
}

// Wait blocks until every scheduled deletion has finished or been cancelled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// ToggleFavorite flips the favorite flag optimistically, then persists it.
// A failed update reverts the flag unless a newer toggle of the same note
// has been issued in the meantime. When toggles overlap and an older one
// fails, the collection is reloaded once no toggle of that note is pending,
// so the flag always converges to the stored value.
func (c *Controller) ToggleFavorite(ctx context.Context, note core.Note) error {
	c.mu.Lock()
	prev := note.Favorite
	if i := c.indexLocked(note.ID); i >= 0 {
		prev = c.notes[i].Favorite
	}
	want := !prev
	c.favSeq++
	token := c.favSeq
	c.favorites[note.ID] = favoriteOp{token: token, want: want}
	c.setFavoriteLocked(note.ID, want)
	if want {
		c.startBumpLocked(note.ID)
	}
	c.mu.Unlock()
	c.notify()

	err := c.repo.Update(ctx, note.ID, core.FavoritePatch(want))

	c.mu.Lock()
	op, ok := c.favorites[note.ID]
	current := ok && op.token == token
	reconcile := current && op.reconcile
	if current {
		delete(c.favorites, note.ID)
	}
	staleReload := false
	if err != nil {
		switch {
		case current:
			c.setFavoriteLocked(note.ID, prev)
		case ok:
			op.reconcile = true
			c.favorites[note.ID] = op
		default:
			staleReload = true
		}
	}
	c.mu.Unlock()

	if err != nil {
		if !current {
			c.logger.Debug("stale favorite toggle failed", "id", note.ID, "error", err)
			if staleReload {
				c.reload(ctx)
			}
			return fmt.Errorf("toggle favorite: %w", err)
		}
		c.logger.Warn("favorite update failed, reverted", "id", note.ID, "error", err)
		c.mu.Lock()
		if errors.Is(err, core.ErrStoreUnavailable) {
			c.err = err
		}
		msg := MsgFavoriteFailed
		if errors.Is(err, core.ErrNotFound) {
			msg = MsgNoteMissing
		}
		c.showToastLocked(msg, true, c.timings.ErrorToast)
		c.mu.Unlock()
		c.notify()
		if reconcile || errors.Is(err, core.ErrNotFound) {
			c.reload(ctx)
		}
		return fmt.Errorf("toggle favorite: %w", err)
	}

	c.notify()
	if current {
		c.reload(ctx)
	}
	return nil
}

func (c *Controller) indexLocked(id string) int {
	return slices.IndexFunc(c.notes, func(n core.Note) bool { return n.ID == id })
}

func (c *Controller) setFavoriteLocked(id string, favorite bool) {
	if i := c.indexLocked(id); i >= 0 {
		c.notes[i].Favorite = favorite
	}
}

// Copy writes text to the clipboard and reports the outcome with a toast.
func (c *Controller) Copy(text string) error {
	err := core.ErrClipboard
	if c.clip != nil {
		if werr := c.clip.WriteAll(text); werr != nil {
			err = fmt.Errorf("%w: %v", core.ErrClipboard, werr)
		} else {
			err = nil
		}
	}

	c.mu.Lock()
	if err != nil {
		c.showToastLocked(MsgCopyFailed, true, c.timings.CopyToast)
	} else {
		c.showToastLocked(MsgCopied, false, c.timings.CopyToast)
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Warn("copy failed", "error", err)
	}
	return err
}

// RequestClearAll arms the confirmation step of ClearAll.
func (c *Controller) RequestClearAll() {
	c.mu.Lock()
	c.confirmAll = true
	c.mu.Unlock()
	c.notify()
}

// CancelClearAll disarms the confirmation step.
func (c *Controller) CancelClearAll() {
	c.mu.Lock()
	c.confirmAll = false
	c.mu.Unlock()
	c.notify()
}

// ClearAll deletes every loaded note, one store call at a time, then reloads.
// It fails with ErrNotConfirmed unless RequestClearAll was called first.
// It returns the number of notes deleted.
func (c *Controller) ClearAll(ctx context.Context) (int, error) {
	c.mu.Lock()
	if !c.confirmAll {
		c.mu.Unlock()
		return 0, ErrNotConfirmed
	}
	c.confirmAll = false
	ids := make([]string, 0, len(c.notes))
	for _, n := range c.notes {
		ids = append(ids, n.ID)
	}
	c.mu.Unlock()
	c.notify()

	deleted := 0
	var failure error
	for _, id := range ids {
		if err := c.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			failure = err
			break
		}
		deleted++
	}

	if failure != nil {
		failure = c.fail(ctx, "clear all", failure)
	}
	c.reload(ctx)
	return deleted, failure
}

// Import creates one note per draft, sequentially, then reloads once.
// Blank drafts are skipped. It returns the number of notes created.
func (c *Controller) Import(ctx context.Context, drafts []core.Draft) (int, error) {
	created := 0
	for _, d := range drafts {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		if _, err := c.repo.Insert(ctx, d); err != nil {
			err = c.fail(ctx, "import", err)
			c.reload(ctx)
			return created, err
		}
		created++
	}

	c.mu.Lock()
	c.showToastLocked(fmt.Sprintf("Imported %d notes", created), false, c.timings.SaveToast)
	c.mu.Unlock()
	c.notify()

	c.reload(ctx)
	return created, nil
}

// Refresh reloads the collection and confirms that everything is persisted.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.showToastLocked(MsgAllSaved, false, c.timings.SaveToast)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Search sets the query of the derived views.
func (c *Controller) Search(query string) {
	c.mu.Lock()
	c.search = query
	c.mu.Unlock()
	c.notify()
}

// SetFilter sets the active filter of the derived views.
func (c *Controller) SetFilter(f Filter) error {
	if f != FilterAll && f != FilterFavorites {
		return fmt.Errorf("unknown filter %q", f)
	}
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	c.notify()
	return nil
}

// ToggleTheme flips between dark and light mode.
func (c *Controller) ToggleTheme() {
	c.mu.Lock()
	c.darkMode = !c.darkMode
	c.mu.Unlock()
	c.notify()
}

// DismissToast hides the visible toast and cancels its expiry.
func (c *Controller) DismissToast() {
	c.mu.Lock()
	c.toastTimer.replace()
	c.toast = nil
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn for every state change and returns its cancel func.
// fn runs outside the controller lock and may call back into the controller.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return
	}
	st := c.snapshotLocked()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Close stops every pending timer and cancels scheduled store calls.
// Deletions still inside their grace delay are abandoned.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.toastTimer.replace()
	c.bumpTimer.replace()
	for id, h := range c.deleting {
		if h.Stop() {
			c.wg.Done()
		}
		delete(c.deleting, id)
	}
	c.mu.Unlock()
	c.cancel()
}
