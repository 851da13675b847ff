package editor

import "github.com/starford/folio/internal/parser"

// Plain edits text and source files.
type Plain struct{ buffer }

// Rich carries rtf and docx content verbatim; there is no structured model.
type Rich struct{ buffer }

// Markdown edits Markdown with frontmatter awareness.
type Markdown struct{ buffer }

// Title returns the frontmatter title or the first H1.
func (m *Markdown) Title() string {
	r, err := parser.Parse([]byte(m.text))
	if err != nil {
		return ""
	}
	return r.Title
}

// Tags returns frontmatter and inline tags.
func (m *Markdown) Tags() []string {
	r, err := parser.Parse([]byte(m.text))
	if err != nil {
		return nil
	}
	return r.Tags
}

// HTML edits HTML source.
type HTML struct{ buffer }

// Title returns the <title> text, or the first <h1>.
func (h *HTML) Title() string {
	return parser.HTMLTitle(h.text)
}

// TitleOf returns the derived title of e, or "" for kinds without one.
func TitleOf(e Editor) string {
	if t, ok := e.(Titled); ok {
		return t.Title()
	}
	return ""
}
