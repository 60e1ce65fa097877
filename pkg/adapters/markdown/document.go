// Package markdown moves notes in and out of Markdown files.
//
// Each note is one file with a YAML frontmatter block carrying its metadata,
// followed by the note text:
//
//	---
//	id: 3f2b...
//	favorite: true
//	created_at: 2026-01-02T15:04:05Z
//	---
//	buy milk
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/jot/pkg/core"
)

// Frontmatter is the metadata block of an exported note.
type Frontmatter struct {
	ID        string    `yaml:"id,omitempty"`
	Favorite  bool      `yaml:"favorite"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}

// Document is a parsed note file.
type Document struct {
	Frontmatter
	Text string
}

// ErrUnterminated is returned for a frontmatter block without a closing fence.
var ErrUnterminated = errors.New("frontmatter started but no closing delimiter found")

// FromNote builds the document of n.
func FromNote(n core.Note) Document {
	return Document{
		Frontmatter: Frontmatter{ID: n.ID, Favorite: n.Favorite, CreatedAt: n.CreatedAt.UTC()},
		Text:        n.Text,
	}
}

// Draft returns the note fields a store accepts on insert.
func (d Document) Draft() core.Draft {
	return core.Draft{Text: d.Text, Favorite: d.Favorite}
}

// Parse reads a document. Files without frontmatter are plain note text.
func Parse(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	var d Document
	if !bytes.HasPrefix(data, []byte("---\n")) {
		d.Text = trimFinalNewline(string(data))
		return d, nil
	}

	rest := data[len("---\n"):]
	var yamlData, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")), bytes.Equal(rest, []byte("---")):
		body = bytes.TrimPrefix(bytes.TrimPrefix(rest, []byte("---")), []byte("\n"))
	default:
		// The closing fence must sit on its own line.
		end := bytes.Index(rest, []byte("\n---\n"))
		if end < 0 {
			if !bytes.HasSuffix(rest, []byte("\n---")) {
				return Document{}, ErrUnterminated
			}
			end = len(rest) - len("\n---")
			yamlData, body = rest[:end], nil
		} else {
			yamlData, body = rest[:end], rest[end+len("\n---\n"):]
		}
	}

	if err := yaml.Unmarshal(yamlData, &d.Frontmatter); err != nil {
		return Document{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	d.Text = trimFinalNewline(string(body))
	return d, nil
}

// Marshal serializes the document with its frontmatter.
func (d Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.Frontmatter); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.WriteString(d.Text)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Marshal always ends the file with one newline; Parse removes exactly one.
func trimFinalNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
