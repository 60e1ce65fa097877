package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/jot/pkg/schedule"
)

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Retry configures the bounded backoff of Load.
type Retry struct {
	Attempts int
	Backoff  time.Duration // delay before the second attempt, doubled afterwards
}

// options holds the internal configuration for the Controller.
type options struct {
	logger    *slog.Logger
	clipboard Clipboard
	scheduler schedule.Scheduler
	timings   Timings
	retry     Retry
	ctx       context.Context
}

// Option defines a functional option for configuring the Controller.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		scheduler: schedule.Realtime{},
		timings:   DefaultTimings(),
		retry:     Retry{Attempts: 3, Backoff: 100 * time.Millisecond},
		ctx:       context.Background(),
	}
}

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClipboard sets the clipboard used by Copy.
func WithClipboard(c Clipboard) Option {
	return func(o *options) {
		o.clipboard = c
	}
}

// WithScheduler replaces the wall-clock scheduler (e.g. schedule.NewManual in tests).
func WithScheduler(s schedule.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithTimings overrides the toast, delete-grace and bump delays.
func WithTimings(t Timings) Option {
	return func(o *options) {
		o.timings = t
	}
}

// WithRetry configures Load's retry on ErrStoreUnavailable.
// Attempts below 1 mean a single attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.retry = Retry{Attempts: attempts, Backoff: backoff}
	}
}

// WithContext sets the lifetime context used by scheduled store calls.
// Close cancels a child of it.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}
