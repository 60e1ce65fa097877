package markdown

import (
	"bytes"
	"cmp"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/jot/internal/fsutil"
	"github.com/aretw0/jot/pkg/core"
)

// DefaultPattern matches every Markdown file below the import root.
const DefaultPattern = "**/*.md"

// FileName returns the export file name of n.
func FileName(n core.Note) string {
	return n.ID + ".md"
}

// Export writes one file per visible note into dir, creating it if needed.
// Existing files of the same notes are replaced atomically.
func Export(dir string, notes []core.Note) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	written := 0
	for _, n := range notes {
		if !n.Visible() {
			continue
		}
		if strings.ContainsAny(n.ID, `/\`) || n.ID == "." || n.ID == ".." {
			return written, fmt.Errorf("export: unsafe note id %q", n.ID)
		}
		data, err := FromNote(n).Marshal()
		if err != nil {
			return written, fmt.Errorf("export %s: %w", n.ID, err)
		}
		if err := fsutil.WriteFileAtomic(filepath.Join(dir, FileName(n)), data, 0644); err != nil {
			return written, fmt.Errorf("export %s: %w", n.ID, err)
		}
		written++
	}
	return written, nil
}

// Import reads every file under root matching pattern (doublestar syntax,
// DefaultPattern when empty). Documents come back ordered by creation time,
// then path; files without a creation time sort last. Blank notes are skipped.
func Import(root, pattern string) ([]Document, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("import: invalid pattern %q", pattern)
	}

	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	type entry struct {
		path string
		doc  Document
	}
	var entries []entry
	for _, path := range matches {
		if fsutil.IsTemp(path) {
			continue
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		doc, err := Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		entries = append(entries, entry{path: path, doc: doc})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		az, bz := a.doc.CreatedAt.IsZero(), b.doc.CreatedAt.IsZero()
		switch {
		case az && !bz:
			return 1
		case !az && bz:
			return -1
		}
		if c := a.doc.CreatedAt.Compare(b.doc.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e.doc)
	}
	return docs, nil
}

// Drafts converts documents into store drafts.
func Drafts(docs []Document) []core.Draft {
	out := make([]core.Draft, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Draft())
	}
	return out
}
