package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/apperr"
)

// ImportFile copies src into destDir and returns the destination path. If
// the base name is taken, "_1", "_2", ... is appended before the extension
// and the lowest free counter wins. The search is linear in the number of
// existing collisions. The copy is a whole-file read followed by a
// whole-file write; a failed write is not cleaned up.
func ImportFile(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("library: import %s: %w", src, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("library: import: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("library: import %s: source is a directory: %w", src, apperr.ErrInvalidName)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("library: import: %w", err)
	}
	return ImportBytes(filepath.Base(src), data, destDir)
}

// ImportBytes writes data into destDir under name, searching for a free name
// the same way ImportFile does.
func ImportBytes(name string, data []byte, destDir string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", fmt.Errorf("library: import: %w", err)
	}
	dest, f, err := createUnique(destDir, name)
	if err != nil {
		return "", fmt.Errorf("library: import: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("library: import write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("library: import close %s: %w", dest, err)
	}
	return dest, nil
}

// createUnique opens the first free candidate name exclusively, so a
// concurrent creator can never be overwritten.
func createUnique(dir, name string) (string, *os.File, error) {
	base, ext := splitExt(name)
	candidate := name
	for counter := 1; ; counter++ {
		p := filepath.Join(dir, candidate)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return p, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", nil, err
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

// splitExt splits off the final extension. Leading dots of dotfiles are
// part of the base: ".env" has no extension.
func splitExt(name string) (base, ext string) {
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	if strings.Trim(base, ".") == "" {
		return name, ""
	}
	return base, ext
}

// Import copies src into directory id and records the new document when
// its extension is recognized. The returned document is nil otherwise.
func (t *Tree) Import(id DirID, src string) (string, *Document, error) {
	if _, err := t.Get(id); err != nil {
		return "", nil, err
	}
	dest, err := ImportFile(src, t.FullPath(id))
	if err != nil {
		return "", nil, err
	}
	return dest, t.recordImported(id, dest), nil
}

// ImportBytes is Import for content that is already in memory.
func (t *Tree) ImportBytes(id DirID, name string, data []byte) (string, *Document, error) {
	if _, err := t.Get(id); err != nil {
		return "", nil, err
	}
	dest, err := ImportBytes(name, data, t.FullPath(id))
	if err != nil {
		return "", nil, err
	}
	return dest, t.recordImported(id, dest), nil
}

func (t *Tree) recordImported(id DirID, dest string) *Document {
	doc, _ := t.Adopt(id, filepath.Base(dest))
	return doc
}
