package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/models"
)

const tempPattern = ".folio-tmp-*"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to library directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute library root.
func (f *FS) Root() string {
	return f.root
}

// Resolve maps a library-relative path to an absolute one and rejects
// any result that escapes the root (directory traversal).
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" || rel == "." || rel == "/" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes library root: %s", rel)
	}
	return abs, nil
}

// Rel converts an absolute path under the root to a slash-separated relative path.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", fmt.Errorf("storage: rel: %w", err)
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path outside library root: %s", abs)
	}
	return filepath.ToSlash(rel), nil
}

// List walks dir (relative to root) and returns metadata for every
// document whose extension is in the type registry.
func (f *FS) List(dir string) ([]models.DocumentMeta, error) {
	base, err := f.Resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocumentMeta
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		typ, classifyErr := doctype.FromFilename(d.Name())
		if classifyErr != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := f.Rel(p)
		out = append(out, models.DocumentMeta{
			Path:      rel,
			Type:      typ,
			Size:      info.Size(),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Stat returns metadata for one document together with its content.
func (f *FS) Stat(path string) (models.DocumentMeta, []byte, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return models.DocumentMeta{}, nil, err
	}
	typ, err := doctype.FromFilename(filepath.Base(abs))
	if err != nil {
		return models.DocumentMeta{}, nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.DocumentMeta{}, nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return models.DocumentMeta{}, nil, fmt.Errorf("storage: stat %s: is a directory", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.DocumentMeta{}, nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	rel, _ := f.Rel(abs)
	return models.DocumentMeta{
		Path:      rel,
		Type:      typ,
		Size:      int64(len(data)),
		Checksum:  checksum.Sum(data),
		UpdatedAt: info.ModTime(),
	}, data, nil
}

// Read returns the raw bytes of a library file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// WriteFileAtomic writes content to abs: tmp file → fsync → rename.
// The parent directory must exist. A symlink at abs is written through and
// an existing file keeps its permission bits; new files get 0644.
func WriteFileAtomic(abs string, content []byte) error {
	if target, err := filepath.EvalSymlinks(abs); err == nil {
		abs = target
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		mode = info.Mode().Perm()
	}
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	// CreateTemp uses 0600.
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// IsTemp reports whether name is a leftover atomic-write temp file.
func IsTemp(name string) bool {
	ok, err := filepath.Match(tempPattern, name)
	return err == nil && ok
}

// Exists reports whether abs exists. Errors other than not-exist count as existing.
func Exists(abs string) bool {
	_, err := os.Lstat(abs)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
