// Package lifecycle exposes session transitions as a lifecycle.Source so a
// lifecycle-managed application can react to sign-ins and sign-outs.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/jot/pkg/core"
)

type sessionSource struct {
	events <-chan core.SessionEvent
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source over a session event stream,
// typically the one returned by session.Controller.Events.
//
// Events keep the order the session controller emitted them in, but only
// transitions pass: a repeated state (the same user signed in again, or a
// second sign-out) is dropped. When the account changes without a sign-out
// in between, a sign-out for the previous user is emitted first, so
// consumers always see sign-in and sign-out strictly alternating.
//
// The source never buffers. Events the session controller drops on a full
// channel are not recovered here.
func NewSource(events <-chan core.SessionEvent) lifecycle.Source {
	return &sessionSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *sessionSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards transitions until ctx is done or the input closes, then
// closes the output channel.
func (s *sessionSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)

		var current *core.Session
		started := false
		emit := func(e core.SessionEvent) bool {
			select {
			case s.out <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if started && sameUser(current, e.Session) {
					continue
				}
				if current != nil && e.Session != nil {
					if !emit(core.SessionEvent{Timestamp: e.Timestamp}) {
						return nil
					}
				}
				if !emit(e) {
					return nil
				}
				current, started = e.Session, true
			}
		}
	})
	return nil
}

func sameUser(a, b *core.Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID == b.UserID
}
