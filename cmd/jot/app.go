package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/jot"
	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/notes"
)

var stdin = bufio.NewReader(os.Stdin)

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openApp loads the configuration of the enclosing jot project (or the
// working directory) and applies the global flags on top of it.
func openApp(ctx context.Context) *jot.App {
	wd, err := os.Getwd()
	if err != nil {
		fatal("Error getting working directory", err)
	}
	dir := wd
	if root, err := jot.FindRoot(wd); err == nil {
		dir = root
	}

	cfg, err := jot.LoadConfig(dir, os.Getenv)
	if err != nil {
		fatal("Error loading configuration", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if adapter != "" {
		cfg.Adapter = adapter
	}
	if project != "" {
		cfg.Project = project
	}

	app, err := jot.Open(ctx, cfg,
		jot.WithLogger(slog.Default()),
		jot.WithDevSafety(!unsafeDev),
	)
	if err != nil {
		fatal("Error initializing jot", err)
	}
	return app
}

// openNotes returns a loaded note controller for the signed-in user.
func openNotes(ctx context.Context, app *jot.App, opts ...notes.Option) (*notes.Controller, error) {
	ctrl, err := app.Notes(opts...)
	if errors.Is(err, jot.ErrNotSignedIn) {
		return nil, fmt.Errorf("%w, run `jot login` first", err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening notes: %w", err)
	}
	if err := ctrl.Load(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

// findNote resolves an id or a unique id prefix.
func findNote(list []core.Note, prefix string) (core.Note, error) {
	var match []core.Note
	for _, n := range list {
		if n.ID == prefix {
			return n, nil
		}
		if strings.HasPrefix(n.ID, prefix) {
			match = append(match, n)
		}
	}
	switch len(match) {
	case 0:
		return core.Note{}, fmt.Errorf("%w: %s", core.ErrNotFound, prefix)
	case 1:
		return match[0], nil
	default:
		return core.Note{}, fmt.Errorf("ambiguous id %q matches %d notes", prefix, len(match))
	}
}

// report prints the visible toast, errors to stderr. A non-nil err becomes
// errReported, since the toast already describes it.
func report(ctrl *notes.Controller, err error) error {
	show(ctrl)
	if err != nil {
		return errReported
	}
	return nil
}

func show(ctrl *notes.Controller) {
	t := ctrl.Snapshot().Toast
	if t == nil {
		return
	}
	if t.IsError {
		fmt.Fprintln(os.Stderr, t.Message)
		return
	}
	fmt.Println(t.Message)
}

func readLine(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := stdin.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(prompt string) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("Error reading password", err)
	}
	return string(pw)
}

func confirm(prompt string) bool {
	answer := strings.ToLower(strings.TrimSpace(readLine(prompt + " [y/N] ")))
	return answer == "y" || answer == "yes"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
