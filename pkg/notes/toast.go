package notes

import (
	"errors"
	"time"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/schedule"
)

// Toast is a transient notification shown to the user.
type Toast struct {
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"isError"` // true for error toasts, false for success
}

// Toast messages.
const (
	MsgAdded            = "Note added"
	MsgUpdated          = "Note updated"
	MsgCopied           = "Note copied"
	MsgCopyFailed       = "Could not copy the note"
	MsgFavoriteFailed   = "Could not update favorite"
	MsgStoreUnavailable = "Notes are unavailable right now, try again"
	MsgNoteMissing      = "That note no longer exists"
	MsgAllSaved         = "All notes are saved"
	MsgFailed           = "Something went wrong"
)

// Timings are the fixed UI delays of the controller.
type Timings struct {
	SaveToast    time.Duration
	CopyToast    time.Duration
	ErrorToast   time.Duration
	DeleteGrace  time.Duration
	FavoriteBump time.Duration
}

// DefaultTimings returns the standard UI delays.
func DefaultTimings() Timings {
	return Timings{
		SaveToast:    2500 * time.Millisecond,
		CopyToast:    2000 * time.Millisecond,
		ErrorToast:   3000 * time.Millisecond,
		DeleteGrace:  200 * time.Millisecond,
		FavoriteBump: 600 * time.Millisecond,
	}
}

// transient is a piece of UI state cleared by a scheduled task.
// seq identifies the task that owns the current value.
type transient struct {
	seq    uint64
	handle schedule.Handle
}

// replace stops the previous task and returns the sequence for the next one.
func (t *transient) replace() uint64 {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
	t.seq++
	return t.seq
}

// showToastLocked replaces the visible toast and restarts its expiry clock.
// Caller holds c.mu.
func (c *Controller) showToastLocked(msg string, isError bool, d time.Duration) {
	seq := c.toastTimer.replace()
	c.toast = &Toast{Message: msg, Duration: d, IsError: isError}
	c.toastTimer.handle = c.sched.AfterFunc(d, func() {
		c.mu.Lock()
		if c.toastTimer.seq != seq {
			c.mu.Unlock()
			return
		}
		c.toast = nil
		c.toastTimer.handle = nil
		c.mu.Unlock()
		c.notify()
	})
}

// startBumpLocked flags id for the one-shot favorite animation. Caller holds c.mu.
func (c *Controller) startBumpLocked(id string) {
	seq := c.bumpTimer.replace()
	c.bumpID = id
	c.bumpTimer.handle = c.sched.AfterFunc(c.timings.FavoriteBump, func() {
		c.mu.Lock()
		if c.bumpTimer.seq != seq {
			c.mu.Unlock()
			return
		}
		c.bumpID = ""
		c.bumpTimer.handle = nil
		c.mu.Unlock()
		c.notify()
	})
}

// errorMessage maps an error onto the toast shown for it.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrStoreUnavailable):
		return MsgStoreUnavailable
	case errors.Is(err, core.ErrNotFound):
		return MsgNoteMissing
	case errors.Is(err, core.ErrClipboard):
		return MsgCopyFailed
	default:
		return MsgFailed
	}
}
