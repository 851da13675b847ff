package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/doctype"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string       `json:"path"`
	Title     string       `json:"title"`
	Type      doctype.Type `json:"type"`
	Checksum  string       `json:"checksum"`
	Size      int64        `json:"size"`
	Tags      []string     `json:"tags"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string       `json:"path"`
	Title   string       `json:"title"`
	Type    doctype.Type `json:"type"`
	Snippet string       `json:"snippet"`
}

var sortColumns = map[string]string{
	"":        "path ASC",
	"path":    "path ASC",
	"title":   "title COLLATE NOCASE ASC, path ASC",
	"updated": "updated_at DESC, path ASC",
	"size":    "size DESC, path ASC",
}

// UpsertDocument inserts or replaces a document and its FTS entry in one transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if d.Tags == nil {
		d.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(d.Tags)
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, type, checksum, size, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			type       = excluded.type,
			checksum   = excluded.checksum,
			size       = excluded.size,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Type.String(), d.Checksum, d.Size, string(tagsJSON), body, d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, body, d.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes one document and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// DeletePrefix removes every document below directory dir and returns the
// removed paths. An empty dir is refused; use Sync to rebuild from scratch.
func (db *DB) DeletePrefix(dir string) ([]string, error) {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return nil, fmt.Errorf("index: delete prefix: %w", apperr.ErrRootDirectory)
	}
	// Paths below dir sort in [dir+"/", dir+"0"): '0' follows '/' in byte
	// order and SQLite compares TEXT bytewise, so any UTF-8 name works.
	lo, hi := dir+"/", dir+"0"

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.Query(`SELECT path FROM documents WHERE path >= ? AND path < ?`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("index: delete prefix: %w", err)
	}
	var removed []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range removed {
		ftsDelete(tx, p)
		if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, p); err != nil {
			return nil, fmt.Errorf("index: delete prefix: %w", err)
		}
	}
	return removed, tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or "" if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDocument returns one catalogue row.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, type, checksum, size, tags, updated_at
		FROM documents WHERE path = ?`, path)
	d, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// AllChecksums returns path → checksum for every catalogued document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Count returns the number of catalogued documents.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// ListDocuments returns one page of the catalogue and the total number of
// matching rows. typ 0 means every type. sort is one of "path", "title",
// "updated" or "size".
func (db *DB) ListDocuments(limit, offset int, typ doctype.Type, sort string) ([]DocumentRow, int, error) {
	order, ok := sortColumns[sort]
	if !ok {
		return nil, 0, fmt.Errorf("index: unknown sort %q: %w", sort, apperr.ErrInvalidName)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where, args := "", []any{}
	if typ != 0 {
		where = "WHERE type = ?"
		args = append(args, typ.String())
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: list count: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, title, type, checksum, size, tags, updated_at
		FROM documents `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	out := []DocumentRow{}
	for rows.Next() {
		d, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*DocumentRow, error) {
	var (
		d        DocumentRow
		typName  string
		tagsJSON string
	)
	if err := s.Scan(&d.Path, &d.Title, &typName, &d.Checksum, &d.Size, &tagsJSON, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Type, _ = doctype.Parse(typName)
	if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil || d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var (
			r       SearchResult
			typName string
		)
		if err := rows.Scan(&r.Path, &r.Title, &typName, &r.Snippet); err != nil {
			return nil, err
		}
		r.Type, _ = doctype.Parse(typName)
		out = append(out, r)
	}
	return out, rows.Err()
}
