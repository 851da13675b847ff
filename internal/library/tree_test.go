package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/doctype"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func liveDirs(tr *Tree) int {
	n := 0
	for _, d := range tr.dirs {
		if d != nil {
			n++
		}
	}
	return n
}

func TestNewTree_RootPath(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)

	d, err := tr.Get(tr.Root())
	require.NoError(t, err)
	assert.Equal(t, None, d.Parent)
	assert.Equal(t, filepath.Clean(root), tr.FullPath(tr.Root()))
	assert.Empty(t, tr.RelPath(tr.Root()))
	assert.NotNil(t, d.Subdirs)
	assert.NotNil(t, d.Documents)
	assert.False(t, d.Scanned)
}

func TestScan_ClassifiesAndSkips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")
	writeFile(t, filepath.Join(root, "b.exe"), "MZ")
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	tr := NewTree(root)
	require.NoError(t, tr.Scan(tr.Root()))

	d, _ := tr.Get(tr.Root())
	require.Len(t, d.Documents, 1)
	assert.Equal(t, "a", d.Documents[0].Title)
	assert.Equal(t, doctype.Markdown, d.Documents[0].Type)

	require.Len(t, d.Subdirs, 1)
	sub, _ := tr.Get(d.Subdirs[0])
	assert.Equal(t, "sub", sub.Name)
	assert.False(t, sub.Scanned, "child directories are stubs")
	assert.Equal(t, filepath.Join(root, "sub"), tr.FullPath(sub.ID))
}

func TestScan_SortedAndReplacesState(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"c.txt", "a.txt", "B.HTML"} {
		writeFile(t, filepath.Join(root, n), "")
	}
	tr := NewTree(root)
	require.NoError(t, tr.Scan(tr.Root()))
	d, _ := tr.Get(tr.Root())
	var names []string
	for _, doc := range d.Documents {
		names = append(names, doc.FileName())
	}
	assert.Equal(t, []string{"B.HTML", "a.txt", "c.txt"}, names)
	assert.FileExists(t, d.Documents[0].FullPath())

	require.NoError(t, os.Remove(filepath.Join(root, "a.txt")))
	require.NoError(t, tr.Scan(tr.Root()))
	assert.Len(t, d.Documents, 2)
}

func TestScan_ReleasesOldSubtrees(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "x", "y"), 0o755))
	tr := NewTree(root)
	x, err := tr.Resolve("x/y")
	require.NoError(t, err)
	assert.Equal(t, 3, liveDirs(tr))

	require.NoError(t, tr.Scan(tr.Root()))
	_, err = tr.Get(x)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 2, liveDirs(tr))
}

func TestScan_MissingDirectory(t *testing.T) {
	tr := NewTree(filepath.Join(t.TempDir(), "missing"))
	err := tr.Scan(tr.Root())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreateSubdirectory_DeduplicatesByName(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)

	first, err := tr.CreateSubdirectory(tr.Root(), "projects")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, "projects"))

	second, err := tr.CreateSubdirectory(tr.Root(), "projects")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	d, _ := tr.Get(tr.Root())
	assert.Len(t, d.Subdirs, 1)
}

func TestCreateSubdirectory_ExistingOnDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "already"), 0o755))
	tr := NewTree(root)
	_, err := tr.CreateSubdirectory(tr.Root(), "already")
	assert.NoError(t, err)
}

func TestCreateDocument_RejectsDuplicate(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)

	doc, err := tr.CreateDocument(tr.Root(), "notes", doctype.Markdown)
	require.NoError(t, err)
	assert.FileExists(t, doc.FullPath())

	_, err = tr.CreateDocument(tr.Root(), "notes", doctype.Markdown)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = tr.CreateDocument(tr.Root(), "notes", doctype.Text)
	assert.NoError(t, err, "same title with another type is a different file")

	d, _ := tr.Get(tr.Root())
	assert.Len(t, d.Documents, 2)
}

func TestDelete_NestedContents(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)

	docs, err := tr.CreateSubdirectory(tr.Root(), "docs")
	require.NoError(t, err)
	deep, err := tr.CreateSubdirectory(docs, "deep")
	require.NoError(t, err)
	_, err = tr.CreateDocument(deep, "leaf", doctype.Text)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "docs", "deep", "deeper", "x.bin"), "raw")
	writeFile(t, filepath.Join(root, "docs", "top.md"), "# top")

	require.NoError(t, tr.Delete(docs))

	assert.NoDirExists(t, filepath.Join(root, "docs"))
	rootDir, _ := tr.Get(tr.Root())
	assert.Empty(t, rootDir.Subdirs)
	_, err = tr.Get(deep)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_AlreadyGoneStillDetaches(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	id, err := tr.CreateSubdirectory(tr.Root(), "tmp")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "tmp")))

	require.NoError(t, tr.Delete(id))
	d, _ := tr.Get(tr.Root())
	assert.Empty(t, d.Subdirs)
}

func TestDelete_RootRefused(t *testing.T) {
	tr := NewTree(t.TempDir())
	assert.ErrorIs(t, tr.Delete(tr.Root()), apperr.ErrRootDirectory)
}

func TestRename_TargetExistsKeepsName(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	a, err := tr.CreateSubdirectory(tr.Root(), "a")
	require.NoError(t, err)
	_, err = tr.CreateSubdirectory(tr.Root(), "b")
	require.NoError(t, err)

	err = tr.Rename(a, "b")
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	d, _ := tr.Get(a)
	assert.Equal(t, "a", d.Name, "in-memory name must not change on failure")
	assert.DirExists(t, filepath.Join(root, "a"))
	assert.Equal(t, filepath.Join(root, "a"), tr.FullPath(a))
}

func TestRename_MovesSubtree(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	a, err := tr.CreateSubdirectory(tr.Root(), "a")
	require.NoError(t, err)
	inner, err := tr.CreateSubdirectory(a, "inner")
	require.NoError(t, err)
	doc, err := tr.CreateDocument(inner, "memo", doctype.Text)
	require.NoError(t, err)
	require.NoError(t, doc.Save("kept"))

	require.NoError(t, tr.Rename(a, "renamed"))

	assert.Equal(t, filepath.Join(root, "renamed", "inner"), tr.FullPath(inner))
	assert.Equal(t, "renamed/inner", tr.RelPath(inner))
	assert.Equal(t, filepath.Join(root, "renamed", "inner", "memo.txt"), doc.FullPath())

	fresh := NewDocument(doc.Dir, doc.Title, doc.Type)
	require.NoError(t, fresh.Load())
	content, _ := fresh.Content()
	assert.Equal(t, "kept", content)
}

func TestRename_MissingSourceKeepsName(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	a, err := tr.CreateSubdirectory(tr.Root(), "a")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "a")))

	assert.Error(t, tr.Rename(a, "z"))
	d, _ := tr.Get(a)
	assert.Equal(t, "a", d.Name)
}

func TestRenameAndDeleteDocument(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	doc, err := tr.CreateDocument(tr.Root(), "old", doctype.Python)
	require.NoError(t, err)

	require.NoError(t, tr.RenameDocument(tr.Root(), doc, "new"))
	found, ok := tr.DocumentByFileName(tr.Root(), "new.py")
	require.True(t, ok)
	assert.Same(t, doc, found)

	require.NoError(t, tr.DeleteDocument(tr.Root(), doc))
	assert.NoFileExists(t, filepath.Join(root, "new.py"))
	_, ok = tr.DocumentByFileName(tr.Root(), "new.py")
	assert.False(t, ok)

	stranger := NewDocument(root, "stranger", doctype.Text)
	assert.ErrorIs(t, tr.DeleteDocument(tr.Root(), stranger), apperr.ErrNotFound)
}

func TestResolve_LazyScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one", "two", "three.md"), "")
	tr := NewTree(root)

	id, err := tr.Resolve("one/two")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "one", "two"), tr.FullPath(id))

	_, err = tr.Resolve("one/missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = tr.Resolve("../etc")
	assert.ErrorIs(t, err, apperr.ErrInvalidName)

	id, err = tr.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, tr.Root(), id)
}

func TestWalk_ParentsFirst(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	a, _ := tr.CreateSubdirectory(tr.Root(), "a")
	_, _ = tr.CreateSubdirectory(a, "b")

	var seen []string
	require.NoError(t, tr.Walk(tr.Root(), func(id DirID, _ *Directory) error {
		seen = append(seen, tr.RelPath(id))
		return nil
	}))
	assert.Equal(t, []string{"", "a", "a/b"}, seen)
}

func TestScanAll_LoadsSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "deep.md"), "")
	writeFile(t, filepath.Join(root, "a", "top.txt"), "")
	tr := NewTree(root)

	require.NoError(t, tr.ScanAll(tr.Root()))

	b, err := tr.Resolve("a/b")
	require.NoError(t, err)
	d, _ := tr.Get(b)
	assert.True(t, d.Scanned)
	require.Len(t, d.Documents, 1)
	assert.Equal(t, "deep.md", d.Documents[0].FileName())
	assert.Equal(t, 3, liveDirs(tr))

	// A second pass keeps already scanned entries.
	require.NoError(t, tr.ScanAll(tr.Root()))
	_, err = tr.Get(b)
	assert.NoError(t, err)
}

func TestScan_SkipsDirectorySymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.txt"), "s")
	writeFile(t, filepath.Join(root, "real.txt"), "r")
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "alias.txt")))

	tr := NewTree(root)
	require.NoError(t, tr.ScanAll(tr.Root()))

	d, _ := tr.Get(tr.Root())
	assert.Empty(t, d.Subdirs)
	var names []string
	for _, doc := range d.Documents {
		names = append(names, doc.FileName())
	}
	assert.Equal(t, []string{"alias.txt", "real.txt"}, names)

	_, err := tr.Resolve("escape")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdopt(t *testing.T) {
	root := t.TempDir()
	tr := NewTree(root)
	require.NoError(t, tr.Scan(tr.Root()))
	writeFile(t, filepath.Join(root, "late.md"), "# Late")

	doc, err := tr.Adopt(tr.Root(), "late.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, doctype.Markdown, doc.Type)

	again, err := tr.Adopt(tr.Root(), "late.md")
	require.NoError(t, err)
	assert.Same(t, doc, again)

	none, err := tr.Adopt(tr.Root(), "blob.bin")
	require.NoError(t, err)
	assert.Nil(t, none)

	d, _ := tr.Get(tr.Root())
	assert.Len(t, d.Documents, 1)
}
