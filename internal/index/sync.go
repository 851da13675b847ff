package index

import (
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// Sync walks the library and brings the catalogue up to date:
//   - new or changed documents are read and upserted
//   - documents removed from disk are deleted from the catalogue
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument derives title, tags and searchable body from data and
// upserts the catalogue row for m.
func IndexDocument(db Catalogue, m models.DocumentMeta, data []byte) error {
	row := DocumentRow{
		Path:      m.Path,
		Title:     fileTitle(m.Path),
		Type:      m.Type,
		Checksum:  m.Checksum,
		Size:      m.Size,
		UpdatedAt: m.UpdatedAt,
	}
	body := ""

	switch m.Type {
	case doctype.Markdown:
		res, err := parser.Parse(data)
		if err != nil {
			return err
		}
		if res.Title != "" {
			row.Title = res.Title
		}
		row.Tags = res.Tags
		body = res.Body
	case doctype.HTML:
		body = string(data)
		if t := parser.HTMLTitle(body); t != "" {
			row.Title = t
		}
	default:
		// docx is a zip container; only text-like content is searchable.
		if utf8.Valid(data) {
			body = string(data)
		}
	}
	return db.UpsertDocument(row, body)
}

func fileTitle(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
