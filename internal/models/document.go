// Package models defines the transport-neutral records shared by Folio layers.
package models

import (
	"time"

	"github.com/starford/folio/internal/doctype"
)

// DocumentMeta describes one classified document file below the library root.
type DocumentMeta struct {
	Path      string       `json:"path"`
	Type      doctype.Type `json:"type"`
	Size      int64        `json:"size"`
	Checksum  string       `json:"checksum"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// DocumentEntry is a document as it appears in a directory listing.
type DocumentEntry struct {
	Path  string       `json:"path"`
	Title string       `json:"title"`
	Type  doctype.Type `json:"type"`
}

// DirectoryEntry is a child directory as it appears in a directory listing.
type DirectoryEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Listing is the result of scanning one directory.
type Listing struct {
	Path        string           `json:"path"`
	Name        string           `json:"name"`
	Directories []DirectoryEntry `json:"directories"`
	Documents   []DocumentEntry  `json:"documents"`
}

// Outline is a directory together with its whole loaded subtree.
type Outline struct {
	Path        string          `json:"path"`
	Name        string          `json:"name"`
	Directories []Outline       `json:"directories"`
	Documents   []DocumentEntry `json:"documents"`
}
