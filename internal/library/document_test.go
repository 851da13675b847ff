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

func TestDocument_DerivedPaths(t *testing.T) {
	d := NewDocument("/lib/notes", "todo", doctype.Markdown)
	assert.Equal(t, "md", d.Extension())
	assert.Equal(t, "todo.md", d.FileName())
	assert.Equal(t, filepath.Join("/lib/notes", "todo.md"), d.FullPath())

	_, loaded := d.Content()
	assert.False(t, loaded)
}

func TestCreateDocument_EmptyThenRoundTrip(t *testing.T) {
	dir := t.TempDir()

	doc, err := CreateDocument(dir, "report", doctype.Text)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	content, ok := doc.Content()
	assert.True(t, ok)
	assert.Empty(t, content)

	require.NoError(t, doc.Load())
	content, _ = doc.Content()
	assert.Empty(t, content)

	require.NoError(t, doc.Save("hello\nworld"))

	fresh := NewDocument(dir, "report", doctype.Text)
	require.NoError(t, fresh.Load())
	content, ok = fresh.Content()
	assert.True(t, ok)
	assert.Equal(t, "hello\nworld", content)
}

func TestCreateDocument_MissingDirectory(t *testing.T) {
	_, err := CreateDocument(filepath.Join(t.TempDir(), "nope"), "x", doctype.Text)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreateDocument_ExistingFileNotTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.md")
	require.NoError(t, os.WriteFile(path, []byte("precious"), 0o644))

	_, err := CreateDocument(dir, "keep", doctype.Markdown)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(data))
}

func TestCreateDocument_InvalidInput(t *testing.T) {
	dir := t.TempDir()
	_, err := CreateDocument(dir, "../escape", doctype.Text)
	assert.ErrorIs(t, err, apperr.ErrInvalidName)

	_, err = CreateDocument(dir, "ok", doctype.Type(0))
	assert.ErrorIs(t, err, apperr.ErrUnrecognizedType)
}

func TestLoad_MissingFileKeepsStaleCache(t *testing.T) {
	dir := t.TempDir()
	doc, err := CreateDocument(dir, "gone", doctype.Text)
	require.NoError(t, err)
	require.NoError(t, doc.Save("cached"))
	require.NoError(t, os.Remove(doc.FullPath()))

	require.NoError(t, doc.Load())
	content, ok := doc.Content()
	assert.True(t, ok)
	assert.Equal(t, "cached", content)
}

func TestDelete_MissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	doc, err := CreateDocument(dir, "bye", doctype.HTML)
	require.NoError(t, err)

	require.NoError(t, doc.Delete())
	_, err = os.Stat(doc.FullPath())
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, doc.Delete())
}

func TestDocumentRename(t *testing.T) {
	dir := t.TempDir()
	doc, err := CreateDocument(dir, "draft", doctype.RichText)
	require.NoError(t, err)
	_, err = CreateDocument(dir, "final", doctype.RichText)
	require.NoError(t, err)

	err = doc.Rename("final")
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.Equal(t, "draft", doc.Title)

	require.NoError(t, doc.Rename("v2"))
	assert.Equal(t, "v2", doc.Title)
	assert.FileExists(t, filepath.Join(dir, "v2.rtf"))
	assert.NoFileExists(t, filepath.Join(dir, "draft.rtf"))
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"a", "My Notes", "résumé", "v1.2"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, " lead", "trail ", "nul\x00"} {
		assert.ErrorIs(t, ValidateName(bad), apperr.ErrInvalidName, "%q", bad)
	}
}
