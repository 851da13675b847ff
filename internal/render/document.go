package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/libraryservice"
)

// Document renders an opened document with a one-line header. Markdown is
// rendered with glamour using style ("" picks one from the terminal); every
// other kind is printed as stored.
func Document(d *libraryservice.DocumentDetail, style string, width int) (string, error) {
	var b strings.Builder
	title := d.Title
	if d.DisplayTitle != "" && d.DisplayTitle != d.Title {
		title = fmt.Sprintf("%s (%s)", d.DisplayTitle, d.Title)
	}
	fmt.Fprintf(&b, "%s  %s, %s\n", title, d.Type, humanize.Bytes(uint64(d.Size)))
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(d.Tags, ", "))
	}
	b.WriteString("\n")

	if d.Type != doctype.Markdown {
		b.WriteString(d.Content)
		return b.String(), nil
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("render: markdown renderer: %w", err)
	}
	out, err := r.Render(d.Content)
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", d.Path, err)
	}
	b.WriteString(out)
	return b.String(), nil
}
