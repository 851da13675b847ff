package api

import (
	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/libraryservice"
	"github.com/starford/folio/internal/models"
)

// TypeInfo describes one supported document type.
type TypeInfo struct {
	Name      string `json:"name" example:"markdown"`
	Extension string `json:"extension" example:"md"`
}

// CreateDirectoryRequest is the body of POST /directories.
type CreateDirectoryRequest struct {
	Parent string `json:"parent" example:"projects"`
	Name   string `json:"name" example:"2024" validate:"required"`
}

// RenameDirectoryRequest is the body of PUT /directories/*.
type RenameDirectoryRequest struct {
	Name string `json:"name" example:"archive" validate:"required"`
}

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	Dir   string       `json:"dir" example:"projects"`
	Title string       `json:"title" example:"plan" validate:"required"`
	Type  doctype.Type `json:"type" example:"markdown" validate:"required"`
}

// SaveDocumentRequest is the body of PUT /documents/*.
type SaveDocumentRequest struct {
	Content *string `json:"content" validate:"required"`
}

// RenameDocumentRequest is the body of POST /documents/rename.
type RenameDocumentRequest struct {
	Path  string `json:"path" example:"projects/plan.md" validate:"required"`
	Title string `json:"title" example:"roadmap" validate:"required"`
}

// SaveDocumentAsRequest is the body of POST /documents/save-as.
type SaveDocumentAsRequest struct {
	Path   string `json:"path" example:"projects/plan.md" validate:"required"`
	Target string `json:"target" example:"archive/plan-v1.txt" validate:"required"`
}

// DocumentDetail is the full document response (aliased from the service layer).
type DocumentDetail = libraryservice.DocumentDetail

// ImportResult is the response of POST /import.
type ImportResult = libraryservice.ImportResult

// Listing is the response of GET /tree.
type Listing = models.Listing

// Outline is the response of GET /outline.
type Outline = models.Outline

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CatalogueResponse wraps one catalogue page.
type CatalogueResponse struct {
	Documents []index.DocumentRow `json:"documents" validate:"required"`
	Total     int                 `json:"total" example:"42"`
}
