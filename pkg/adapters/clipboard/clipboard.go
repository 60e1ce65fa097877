// Package clipboard writes to the system clipboard through atotto/clipboard.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/aretw0/jot/pkg/core"
)

// System is the system clipboard. On headless hosts without xclip, xsel or
// wl-copy every write fails with core.ErrClipboard.
type System struct{}

// Available reports whether a clipboard utility was found.
func (System) Available() bool {
	return !clipboard.Unsupported
}

// WriteAll copies text to the clipboard.
func (s System) WriteAll(text string) error {
	if !s.Available() {
		return fmt.Errorf("%w: no clipboard utility found", core.ErrClipboard)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", core.ErrClipboard, err)
	}
	return nil
}
