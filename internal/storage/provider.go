// Package storage defines the library file-system abstraction.
package storage

import "github.com/starford/folio/internal/models"

// Provider is the interface for library file operations. Paths are
// slash-separated and relative to the library root.
type Provider interface {
	// Root returns the absolute library root.
	Root() string
	// Resolve maps a relative path to an absolute one inside the root.
	Resolve(rel string) (string, error)
	// Rel maps an absolute path inside the root back to a relative one.
	Rel(abs string) (string, error)
	// List returns metadata for every classifiable document under dir.
	List(dir string) ([]models.DocumentMeta, error)
	// Stat returns metadata and content for one document.
	Stat(path string) (models.DocumentMeta, []byte, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
}

var _ Provider = (*FS)(nil)
