// Package library is the in-memory model of a document library and the
// operations that keep it in step with the filesystem. Every mutation maps
// to exactly one filesystem side effect or is refused.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/storage"
)

// Document is one file in the library. It is not safe for concurrent use.
type Document struct {
	Dir   string // containing directory (absolute)
	Title string // file name without extension
	Type  doctype.Type

	diskExt string // on-disk extension when it differs in case from the canonical one
	content *string
}

// NewDocument returns an entity for an existing (or hypothetical) file
// without touching the filesystem.
func NewDocument(dir, title string, typ doctype.Type) *Document {
	return &Document{Dir: dir, Title: title, Type: typ}
}

func discovered(dir, fileName string, typ doctype.Type) *Document {
	ext := filepath.Ext(fileName)
	d := NewDocument(dir, strings.TrimSuffix(fileName, ext), typ)
	if ext = strings.TrimPrefix(ext, "."); ext != typ.Extension() {
		d.diskExt = ext
	}
	return d
}

// CreateDocument allocates a zero-length file at dir/title.ext. It refuses to
// truncate an existing file.
func CreateDocument(dir, title string, typ doctype.Type) (*Document, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("library: create document: %w", apperr.ErrUnrecognizedType)
	}
	if err := ValidateName(title); err != nil {
		return nil, fmt.Errorf("library: create document: %w", err)
	}
	d := NewDocument(dir, title, typ)
	f, err := os.OpenFile(d.FullPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("library: create document %s: %w", d.FullPath(), apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("library: create document: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("library: create document: %w", err)
	}
	empty := ""
	d.content = &empty
	return d, nil
}

// Extension returns the document's extension: the canonical one of its
// type, or the on-disk spelling for scanned files such as "README.MD".
func (d *Document) Extension() string {
	if d.diskExt != "" {
		return d.diskExt
	}
	return d.Type.Extension()
}

// FileName returns title.ext.
func (d *Document) FileName() string {
	return d.Title + "." + d.Extension()
}

// FullPath returns the absolute path of the backing file.
func (d *Document) FullPath() string {
	return filepath.Join(d.Dir, d.FileName())
}

// Content returns the cached content and whether anything has been cached.
func (d *Document) Content() (string, bool) {
	if d.content == nil {
		return "", false
	}
	return *d.content, true
}

// Load reads the backing file into the cache. A missing file is not an
// error and leaves any previous cache in place, so a successful Load does
// not prove the cache is fresh.
func (d *Document) Load() error {
	data, err := os.ReadFile(d.FullPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("library: load %s: %w", d.FullPath(), err)
	}
	s := string(data)
	d.content = &s
	return nil
}

// Save caches text and replaces the file's content with it.
func (d *Document) Save(text string) error {
	d.content = &text
	if err := storage.WriteFileAtomic(d.FullPath(), []byte(text)); err != nil {
		return fmt.Errorf("library: save %s: %w", d.FullPath(), err)
	}
	return nil
}

// Delete removes the backing file. A missing file is not an error.
// The entity must not be reused afterwards.
func (d *Document) Delete() error {
	if err := os.Remove(d.FullPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("library: delete %s: %w", d.FullPath(), err)
	}
	return nil
}

// Rename moves the backing file to newTitle, keeping the extension. The
// in-memory title changes only after the filesystem rename succeeded.
func (d *Document) Rename(newTitle string) error {
	if err := ValidateName(newTitle); err != nil {
		return fmt.Errorf("library: rename document: %w", err)
	}
	if newTitle == d.Title {
		return nil
	}
	target := filepath.Join(d.Dir, newTitle+"."+d.Extension())
	if storage.Exists(target) {
		return fmt.Errorf("library: rename document to %s: %w", target, apperr.ErrAlreadyExists)
	}
	if err := os.Rename(d.FullPath(), target); err != nil {
		return fmt.Errorf("library: rename document: %w", err)
	}
	d.Title = newTitle
	return nil
}
