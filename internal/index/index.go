package index

import "github.com/starford/folio/internal/doctype"

// Catalogue is the set of index operations the service layer depends on.
type Catalogue interface {
	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(path string) error
	DeletePrefix(dir string) ([]string, error)
	GetChecksum(path string) (string, error)
	GetDocument(path string) (*DocumentRow, error)
	ListDocuments(limit, offset int, typ doctype.Type, sort string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Count() (int, error)
	Close() error
}

var _ Catalogue = (*DB)(nil)
