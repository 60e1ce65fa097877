package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/jot/internal/fsutil"
)

// ErrNoSessionFile is returned by Watch for a provider without a session file.
var ErrNoSessionFile = errors.New("identity: no session file configured")

// Watch follows the session file until ctx is done. Sign-ins and sign-outs
// written by other processes are delivered to OnSessionChange subscribers.
// The directory is watched rather than the file, since atomic writes replace it.
func (p *Provider) Watch(ctx context.Context) error {
	if p.sessionFile == "" {
		return ErrNoSessionFile
	}
	p.mu.Lock()
	if p.watching {
		p.mu.Unlock()
		return fmt.Errorf("identity: watcher already running")
	}
	p.watching = true
	p.mu.Unlock()

	watcher, err := p.newWatcher()
	if err != nil {
		p.mu.Lock()
		p.watching = false
		p.mu.Unlock()
		return err
	}

	// The file may have changed between New and now.
	p.set(p.readSessionFile())

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			_ = watcher.Close()
			p.mu.Lock()
			p.watching = false
			p.mu.Unlock()
		}()
		return p.watchLoop(ctx, watcher)
	}, lifecycle.WithErrorHandler(func(err error) {
		p.logger.Error("session watcher stopped", "error", err)
	}))
	return nil
}

func (p *Provider) newWatcher() (*fsnotify.Watcher, error) {
	dir := filepath.Dir(p.sessionFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("identity: create session dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("identity: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("identity: watch %s: %w", dir, err)
	}
	return watcher, nil
}

func (p *Provider) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	target := filepath.Clean(p.sessionFile)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if fsutil.IsTemp(event.Name) || filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			p.logger.Debug("session file changed", "op", event.Op.String())
			p.set(p.readSessionFile())

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			p.logger.Error("fsnotify error", "error", err)
		}
	}
}
