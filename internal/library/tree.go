package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/storage"
)

// DirID addresses a directory inside a Tree. IDs are stable for the
// lifetime of the entry and are never reused.
type DirID int

// None is the parent of the root and the ID returned alongside errors.
const None DirID = -1

// Directory is one folder entry in the arena. Callers must treat the
// child slices as read-only and mutate only through Tree methods.
type Directory struct {
	ID        DirID
	Path      string // parent location; for the root, its own full path
	Name      string
	Parent    DirID
	Subdirs   []DirID
	Documents []*Document
	Scanned   bool
}

// Tree is an arena of directories rooted at one filesystem location.
// Child lists reflect only the last Scan plus mutations applied through
// the Tree; there is no filesystem watch. Not safe for concurrent use.
type Tree struct {
	dirs []*Directory // released entries are nil
	root DirID
}

// NewTree creates a tree whose root entry points at rootPath. Nothing is
// scanned or created.
func NewTree(rootPath string) *Tree {
	clean := filepath.Clean(rootPath)
	t := &Tree{}
	t.root = t.add(&Directory{
		Path:   clean,
		Name:   filepath.Base(clean),
		Parent: None,
	})
	return t
}

func (t *Tree) add(d *Directory) DirID {
	d.ID = DirID(len(t.dirs))
	if d.Subdirs == nil {
		d.Subdirs = []DirID{}
	}
	if d.Documents == nil {
		d.Documents = []*Document{}
	}
	t.dirs = append(t.dirs, d)
	return d.ID
}

// Root returns the root directory ID.
func (t *Tree) Root() DirID {
	return t.root
}

// Get returns the directory for id.
func (t *Tree) Get(id DirID) (*Directory, error) {
	if id < 0 || int(id) >= len(t.dirs) || t.dirs[id] == nil {
		return nil, fmt.Errorf("library: directory %d: %w", id, apperr.ErrNotFound)
	}
	return t.dirs[id], nil
}

// FullPath composes the directory's absolute path through its parent chain.
func (t *Tree) FullPath(id DirID) string {
	d, err := t.Get(id)
	if err != nil {
		return ""
	}
	if d.Parent == None {
		return d.Path
	}
	return filepath.Join(t.FullPath(d.Parent), d.Name)
}

// RelPath returns the slash-separated path of id below the root ("" for the root).
func (t *Tree) RelPath(id DirID) string {
	var parts []string
	for cur := id; cur != t.root; {
		d, err := t.Get(cur)
		if err != nil {
			return ""
		}
		parts = append(parts, d.Name)
		cur = d.Parent
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// Child returns the in-memory child directory named name.
func (t *Tree) Child(id DirID, name string) (DirID, bool) {
	d, err := t.Get(id)
	if err != nil {
		return None, false
	}
	for _, c := range d.Subdirs {
		if t.dirs[c].Name == name {
			return c, true
		}
	}
	return None, false
}

// Document returns the in-memory document with the given title and type.
func (t *Tree) Document(id DirID, title string, typ doctype.Type) (*Document, bool) {
	d, err := t.Get(id)
	if err != nil {
		return nil, false
	}
	for _, doc := range d.Documents {
		if doc.Title == title && doc.Type == typ {
			return doc, true
		}
	}
	return nil, false
}

// DocumentByFileName returns the in-memory document whose file name is name.
func (t *Tree) DocumentByFileName(id DirID, name string) (*Document, bool) {
	typ, err := doctype.FromFilename(name)
	if err != nil {
		return nil, false
	}
	doc, ok := t.Document(id, strings.TrimSuffix(name, filepath.Ext(name)), typ)
	if !ok || doc.FileName() != name {
		return nil, false
	}
	return doc, true
}

// CreateSubdirectory creates name below id on disk (succeeding if it
// already exists) and records it. A second call with the same name returns
// the existing child instead of appending a duplicate.
func (t *Tree) CreateSubdirectory(id DirID, name string) (DirID, error) {
	parent, err := t.Get(id)
	if err != nil {
		return None, err
	}
	if err := ValidateName(name); err != nil {
		return None, fmt.Errorf("library: create directory: %w", err)
	}
	base := t.FullPath(id)
	if err := os.MkdirAll(filepath.Join(base, name), 0o755); err != nil {
		return None, fmt.Errorf("library: create directory: %w", err)
	}
	if existing, ok := t.Child(id, name); ok {
		return existing, nil
	}
	child := t.add(&Directory{Path: base, Name: name, Parent: id})
	parent.Subdirs = append(parent.Subdirs, child)
	return child, nil
}

// CreateDocument allocates an empty document in id and records it. It is
// refused when the same title and type is already known or present on disk.
func (t *Tree) CreateDocument(id DirID, title string, typ doctype.Type) (*Document, error) {
	d, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Document(id, title, typ); ok {
		return nil, fmt.Errorf("library: create document %s.%s: %w", title, typ.Extension(), apperr.ErrAlreadyExists)
	}
	doc, err := CreateDocument(t.FullPath(id), title, typ)
	if err != nil {
		return nil, err
	}
	d.Documents = append(d.Documents, doc)
	return doc, nil
}

// Delete removes the directory and everything below it from disk, deepest
// entries first, then detaches it from its parent. A directory already gone
// from disk is only detached. A failure part way leaves whatever was not yet
// removed; nothing is restored.
func (t *Tree) Delete(id DirID) error {
	d, err := t.Get(id)
	if err != nil {
		return err
	}
	if d.Parent == None {
		return fmt.Errorf("library: delete directory: %w", apperr.ErrRootDirectory)
	}
	full := t.FullPath(id)
	if _, statErr := os.Lstat(full); statErr == nil {
		if err := os.RemoveAll(full); err != nil {
			return fmt.Errorf("library: delete directory %s: %w", full, err)
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("library: delete directory %s: %w", full, statErr)
	}

	parent := t.dirs[d.Parent]
	parent.Subdirs = slices.DeleteFunc(parent.Subdirs, func(c DirID) bool { return c == id })
	t.release(id)
	return nil
}

// Rename renames the directory on disk and, only if that succeeded, in
// memory. An existing target is refused before anything is touched.
func (t *Tree) Rename(id DirID, newName string) error {
	d, err := t.Get(id)
	if err != nil {
		return err
	}
	if d.Parent == None {
		return fmt.Errorf("library: rename directory: %w", apperr.ErrRootDirectory)
	}
	if err := ValidateName(newName); err != nil {
		return fmt.Errorf("library: rename directory: %w", err)
	}
	if newName == d.Name {
		return nil
	}
	oldPath := t.FullPath(id)
	newPath := filepath.Join(t.FullPath(d.Parent), newName)
	if storage.Exists(newPath) {
		return fmt.Errorf("library: rename directory to %s: %w", newPath, apperr.ErrAlreadyExists)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("library: rename directory: %w", err)
	}
	d.Name = newName
	t.rebase(id)
	return nil
}

// RenameDocument renames doc (which must belong to id), keeping its extension.
func (t *Tree) RenameDocument(id DirID, doc *Document, newTitle string) error {
	if !t.owns(id, doc) {
		return fmt.Errorf("library: rename document %s: %w", doc.FileName(), apperr.ErrNotFound)
	}
	if other, ok := t.Document(id, newTitle, doc.Type); ok && other != doc {
		return fmt.Errorf("library: rename document to %s: %w", other.FileName(), apperr.ErrAlreadyExists)
	}
	return doc.Rename(newTitle)
}

// DeleteDocument removes doc's file and detaches it from id.
func (t *Tree) DeleteDocument(id DirID, doc *Document) error {
	if !t.owns(id, doc) {
		return fmt.Errorf("library: delete document %s: %w", doc.FileName(), apperr.ErrNotFound)
	}
	if err := doc.Delete(); err != nil {
		return err
	}
	d := t.dirs[id]
	d.Documents = slices.DeleteFunc(d.Documents, func(x *Document) bool { return x == doc })
	return nil
}

// Scan replaces both child lists of id with what is on disk now. Child
// directories become unscanned stubs; files with unrecognized extensions
// are skipped. Children are ordered by name.
func (t *Tree) Scan(id DirID) error {
	d, err := t.Get(id)
	if err != nil {
		return err
	}
	full := t.FullPath(id)
	entries, err := os.ReadDir(full)
	if err != nil {
		return fmt.Errorf("library: scan %s: %w", full, err)
	}

	for _, c := range d.Subdirs {
		t.release(c)
	}
	d.Subdirs = []DirID{}
	d.Documents = []*Document{}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			d.Subdirs = append(d.Subdirs, t.add(&Directory{Path: full, Name: name, Parent: id}))
			continue
		}
		if linksToDir(full, e) {
			continue
		}
		if storage.IsTemp(name) {
			continue
		}
		typ, classifyErr := doctype.FromFilename(name)
		if classifyErr != nil {
			continue
		}
		d.Documents = append(d.Documents, discovered(full, name, typ))
	}
	d.Scanned = true
	return nil
}

// Resolve walks a slash-separated path from the root, scanning a directory
// when the next segment is not yet known in memory.
func (t *Tree) Resolve(rel string) (DirID, error) {
	cur := t.root
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "" || seg == "." {
			continue
		}
		if seg == ".." {
			return None, fmt.Errorf("library: resolve %q: %w", rel, apperr.ErrInvalidName)
		}
		child, ok := t.Child(cur, seg)
		if !ok {
			if err := t.Scan(cur); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return None, fmt.Errorf("library: resolve %q: %w", rel, apperr.ErrNotFound)
				}
				return None, err
			}
			if child, ok = t.Child(cur, seg); !ok {
				return None, fmt.Errorf("library: resolve %q: %w", rel, apperr.ErrNotFound)
			}
		}
		cur = child
	}
	return cur, nil
}

// Walk visits id and every loaded directory below it, parents first.
func (t *Tree) Walk(id DirID, fn func(id DirID, d *Directory) error) error {
	d, err := t.Get(id)
	if err != nil {
		return err
	}
	if err := fn(id, d); err != nil {
		return err
	}
	for _, c := range slices.Clone(d.Subdirs) {
		if err := t.Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// ScanAll scans id and every directory below it that has not been scanned
// yet, loading the whole subtree.
func (t *Tree) ScanAll(id DirID) error {
	return t.Walk(id, func(id DirID, d *Directory) error {
		if d.Scanned {
			return nil
		}
		return t.Scan(id)
	})
}

// Adopt records the existing file name in directory id. Unrecognized
// extensions yield a nil document; a file already listed is returned as is.
func (t *Tree) Adopt(id DirID, name string) (*Document, error) {
	d, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	typ, err := doctype.FromFilename(name)
	if err != nil {
		return nil, nil
	}
	if doc, ok := t.DocumentByFileName(id, name); ok {
		return doc, nil
	}
	doc := discovered(t.FullPath(id), name, typ)
	d.Documents = append(d.Documents, doc)
	return doc, nil
}

func (t *Tree) owns(id DirID, doc *Document) bool {
	d, err := t.Get(id)
	if err != nil || doc == nil {
		return false
	}
	return slices.Contains(d.Documents, doc)
}

// rebase refreshes the stored locations below id after its name changed.
func (t *Tree) rebase(id DirID) {
	d := t.dirs[id]
	full := t.FullPath(id)
	for _, doc := range d.Documents {
		doc.Dir = full
	}
	for _, c := range d.Subdirs {
		t.dirs[c].Path = full
		t.rebase(c)
	}
}

func (t *Tree) release(id DirID) {
	d := t.dirs[id]
	if d == nil {
		return
	}
	for _, c := range d.Subdirs {
		t.release(c)
	}
	t.dirs[id] = nil
}

// linksToDir reports a symlink whose target is a directory. Such links are
// neither listed nor descended into, so a scan never leaves the root or loops.
func linksToDir(parent string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}
