// Package doctype is the closed registry mapping file extensions to document kinds.
package doctype

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"github.com/starford/folio/internal/apperr"
)

// Type is a document kind. The zero value is not a valid type.
type Type int

// Declaration order is the registry's total order.
const (
	Text Type = iota + 1
	Markdown
	Python
	Doc
	HTML
	RichText
)

type entry struct {
	ext  string
	name string
}

var registry = map[Type]entry{
	Text:     {ext: "txt", name: "text"},
	Markdown: {ext: "md", name: "markdown"},
	Python:   {ext: "py", name: "python"},
	Doc:      {ext: "docx", name: "doc"},
	HTML:     {ext: "html", name: "html"},
	RichText: {ext: "rtf", name: "rich_text"},
}

var (
	byExt  = make(map[string]Type, len(registry))
	byName = make(map[string]Type, len(registry))
	folder = cases.Fold()
)

func init() {
	for t, e := range registry {
		if _, dup := byExt[e.ext]; dup {
			panic("doctype: duplicate extension " + e.ext)
		}
		byExt[e.ext] = t
		byName[e.name] = t
	}
}

// All returns every registered type in order.
func All() []Type {
	return []Type{Text, Markdown, Python, Doc, HTML, RichText}
}

// Extension returns the canonical lowercase extension without the dot.
func (t Type) Extension() string {
	return registry[t].ext
}

// String returns the kind name.
func (t Type) String() string {
	if e, ok := registry[t]; ok {
		return e.name
	}
	return fmt.Sprintf("doctype(%d)", int(t))
}

// Valid reports whether t is a registered type.
func (t Type) Valid() bool {
	_, ok := registry[t]
	return ok
}

// Classify maps an extension (with or without a leading dot, any case) to its type.
func Classify(ext string) (Type, error) {
	key := folder.String(strings.TrimPrefix(ext, "."))
	if t, ok := byExt[key]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", apperr.ErrUnrecognizedType, ext)
}

// FromFilename classifies the final extension of name.
func FromFilename(name string) (Type, error) {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return 0, fmt.Errorf("%w: %q has no extension", apperr.ErrUnrecognizedType, name)
	}
	return Classify(ext)
}

// Parse accepts either a kind name ("markdown") or an extension ("md").
func Parse(s string) (Type, error) {
	if t, ok := byName[folder.String(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return Classify(strings.TrimSpace(s))
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", apperr.ErrUnrecognizedType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
