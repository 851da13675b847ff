package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/doctype"
)

func TestFor_DispatchesEveryKind(t *testing.T) {
	want := map[doctype.Type]any{
		doctype.Text:     &Plain{},
		doctype.Python:   &Plain{},
		doctype.Markdown: &Markdown{},
		doctype.HTML:     &HTML{},
		doctype.Doc:      &Rich{},
		doctype.RichText: &Rich{},
	}
	for _, typ := range doctype.All() {
		e, err := For(typ)
		require.NoError(t, err, typ.String())
		assert.IsType(t, want[typ], e, typ.String())
		assert.Equal(t, typ, e.Kind())
	}

	_, err := For(doctype.Type(99))
	assert.ErrorIs(t, err, apperr.ErrUnrecognizedType)
}

func TestSave_RemembersLoadedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o644))

	e, err := For(doctype.Text)
	require.NoError(t, err)
	require.NoError(t, e.Load(path))
	assert.Equal(t, "before", e.Content())

	e.SetContent("after")
	require.NoError(t, e.Save(""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after", string(data))
}

func TestSave_AsNewPath(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(orig, []byte("print(1)"), 0o644))

	e, _ := For(doctype.Python)
	require.NoError(t, e.Load(orig))
	copyPath := filepath.Join(dir, "b.py")
	require.NoError(t, e.Save(copyPath))
	e.SetContent("print(2)")
	require.NoError(t, e.Save(""))

	data, _ := os.ReadFile(orig)
	assert.Equal(t, "print(1)", string(data))
	data, _ = os.ReadFile(copyPath)
	assert.Equal(t, "print(2)", string(data))
}

func TestSave_NoPath(t *testing.T) {
	e, _ := For(doctype.RichText)
	e.SetContent("{\\rtf1}")
	assert.ErrorIs(t, e.Save(""), ErrNoPath)
}

func TestLoad_Missing(t *testing.T) {
	e, _ := For(doctype.Markdown)
	err := e.Load(filepath.Join(t.TempDir(), "none.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarkdown_TitleAndTags(t *testing.T) {
	e, _ := For(doctype.Markdown)
	e.SetContent("---\ntags: [plan]\n---\n# Roadmap\nitems #q3\n")
	md := e.(*Markdown)
	assert.Equal(t, "Roadmap", md.Title())
	assert.Equal(t, []string{"plan", "q3"}, md.Tags())
	assert.Equal(t, "Roadmap", TitleOf(e))
}

func TestHTML_Title(t *testing.T) {
	e, _ := For(doctype.HTML)
	e.SetContent("<html><head><title>Home</title></head><body><h1>Welcome</h1></body></html>")
	assert.Equal(t, "Home", TitleOf(e))
}

func TestRich_Verbatim(t *testing.T) {
	raw := "PK\x03\x04\x00binary"
	path := filepath.Join(t.TempDir(), "x.docx")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	e, _ := For(doctype.Doc)
	require.NoError(t, e.Load(path))
	assert.Equal(t, raw, e.Content())
	assert.Empty(t, TitleOf(e))
}
