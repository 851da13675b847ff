// Package editor provides the per-kind editing capability for documents.
// Every kind loads and saves raw text; Markdown and HTML editors also
// derive a display title from the content.
package editor

import (
	"errors"
	"fmt"
	"os"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/storage"
)

// ErrNoPath is returned by Save when no path was given and nothing was loaded.
var ErrNoPath = errors.New("editor: no path to save to")

// Editor holds the working copy of one document.
type Editor interface {
	Kind() doctype.Type
	// Load replaces the working copy with the file at path and remembers path.
	Load(path string) error
	// Save writes the working copy. An empty path saves to the remembered
	// path; any other path is a save-as and becomes the remembered path.
	Save(path string) error
	Content() string
	SetContent(text string)
}

// Titled is implemented by editors that can derive a title from content.
type Titled interface {
	Title() string
}

// For returns a fresh editor for t.
func For(t doctype.Type) (Editor, error) {
	switch t {
	case doctype.Text, doctype.Python:
		return &Plain{buffer{kind: t}}, nil
	case doctype.Markdown:
		return &Markdown{buffer{kind: t}}, nil
	case doctype.HTML:
		return &HTML{buffer{kind: t}}, nil
	case doctype.Doc, doctype.RichText:
		return &Rich{buffer{kind: t}}, nil
	}
	return nil, fmt.Errorf("editor: %d: %w", int(t), apperr.ErrUnrecognizedType)
}

type buffer struct {
	kind doctype.Type
	path string
	text string
}

func (b *buffer) Kind() doctype.Type     { return b.kind }
func (b *buffer) Content() string        { return b.text }
func (b *buffer) SetContent(text string) { b.text = text }

func (b *buffer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("editor: load %s: %w", path, err)
	}
	b.text = string(data)
	b.path = path
	return nil
}

func (b *buffer) Save(path string) error {
	if path == "" {
		path = b.path
	}
	if path == "" {
		return ErrNoPath
	}
	if err := storage.WriteFileAtomic(path, []byte(b.text)); err != nil {
		return fmt.Errorf("editor: save %s: %w", path, err)
	}
	b.path = path
	return nil
}
