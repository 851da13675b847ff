// Package render formats library listings and documents for the terminal.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disiqueira/gotree/v3"
	"github.com/dustin/go-humanize"

	"github.com/starford/folio/internal/models"
)

// Outliner loads a library directory with everything below it.
type Outliner interface {
	Outline(ctx context.Context, dir string) (*models.Outline, error)
}

// Tree renders dir and everything below it. Directories come before
// documents at each level; document sizes are read from below root.
func Tree(ctx context.Context, src Outliner, root, dir string) (string, error) {
	o, err := src.Outline(ctx, dir)
	if err != nil {
		return "", err
	}
	label := o.Name
	if dir == "" {
		label = filepath.Base(filepath.Clean(root))
	}
	t := gotree.New(label + "/")
	fill(root, t, o)
	return t.Print(), nil
}

func fill(root string, node gotree.Tree, o *models.Outline) {
	for i := range o.Directories {
		sub := &o.Directories[i]
		fill(root, node.Add(sub.Name+"/"), sub)
	}
	for _, doc := range o.Documents {
		node.Add(documentLabel(root, doc))
	}
}

func documentLabel(root string, doc models.DocumentEntry) string {
	name := filepath.Base(filepath.FromSlash(doc.Path))
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(doc.Path)))
	if err != nil {
		return fmt.Sprintf("%s [%s]", name, doc.Type)
	}
	return fmt.Sprintf("%s [%s, %s]", name, doc.Type, humanize.Bytes(uint64(info.Size())))
}
