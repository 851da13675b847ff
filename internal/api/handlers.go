package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/libraryservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *libraryservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *libraryservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the library path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. projects%2Fplan.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// Types handles GET /api/types.
//
//	@Summary	List supported document types
//	@Tags		types
//	@Produce	json
//	@Success	200	{array}	TypeInfo
//	@Router		/types [get]
func (h *Handler) Types(w http.ResponseWriter, _ *http.Request) {
	out := make([]TypeInfo, 0, len(doctype.All()))
	for _, t := range doctype.All() {
		out = append(out, TypeInfo{Name: t.String(), Extension: t.Extension()})
	}
	writeJSON(w, http.StatusOK, out)
}

// Tree handles GET /api/tree?dir=.
//
//	@Summary	Scan and list one directory
//	@Tags		tree
//	@Produce	json
//	@Param		dir	query		string	false	"Directory relative to the library root"
//	@Success	200	{object}	Listing
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Tree(r.Context(), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Outline handles GET /api/outline.
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Outline(r.Context(), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, "outline", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CreateDirectory handles POST /api/directories.
func (h *Handler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	var req CreateDirectoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	dir, err := h.svc.CreateDirectory(r.Context(), req.Parent, req.Name)
	if err != nil {
		writeError(w, "create directory", err)
		return
	}
	writeJSON(w, http.StatusCreated, dir)
}

// RenameDirectory handles PUT /api/directories/*.
func (h *Handler) RenameDirectory(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req RenameDirectoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	dir, err := h.svc.RenameDirectory(r.Context(), path, req.Name)
	if err != nil {
		writeError(w, "rename directory", err)
		return
	}
	writeJSON(w, http.StatusOK, dir)
}

// DeleteDirectory handles DELETE /api/directories/*.
func (h *Handler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteDirectory(r.Context(), path); err != nil {
		writeError(w, "delete directory", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary	Create an empty document
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateDocumentRequest	true	"Document to create"
//	@Success	201		{object}	DocumentDetail
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Type == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("title and type are required"))
		return
	}
	doc, err := h.svc.CreateDocument(r.Context(), req.Dir, req.Title, req.Type)
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.OpenDocument(r.Context(), path)
	if err != nil {
		writeError(w, "open document", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// SaveDocument handles PUT /api/documents/*.
//
//	@Summary	Replace document content with optimistic concurrency
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Param		path		path		string				true	"Document path"
//	@Param		If-Match	header		string				false	"SHA-256 checksum of the current content"
//	@Param		body		body		SaveDocumentRequest	true	"New content"
//	@Success	200			{object}	DocumentDetail
//	@Failure	404			{object}	errResponse
//	@Failure	409			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/documents/{path} [put]
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req SaveDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	doc, err := h.svc.SaveDocument(r.Context(), path, *req.Content, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "save document", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// RenameDocument handles POST /api/documents/rename.
func (h *Handler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	var req RenameDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and title are required"))
		return
	}
	entry, err := h.svc.RenameDocument(r.Context(), req.Path, req.Title)
	if err != nil {
		writeError(w, "rename document", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SaveDocumentAs handles POST /api/documents/save-as.
func (h *Handler) SaveDocumentAs(w http.ResponseWriter, r *http.Request) {
	var req SaveDocumentAsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and target are required"))
		return
	}
	doc, err := h.svc.SaveDocumentAs(r.Context(), req.Path, req.Target)
	if err != nil {
		writeError(w, "save document as", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// DeleteDocument handles DELETE /api/documents/*.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), path); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary	Full-text search across documents
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Catalogue handles GET /api/catalogue.
func (h *Handler) Catalogue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var typ doctype.Type
	if raw := q.Get("type"); raw != "" {
		parsed, err := doctype.Parse(raw)
		if err != nil {
			writeError(w, "catalogue", err)
			return
		}
		typ = parsed
	}

	rows, total, err := h.svc.List(r.Context(), limit, offset, typ, q.Get("sort"))
	if err != nil {
		writeError(w, "catalogue", err)
		return
	}
	writeJSON(w, http.StatusOK, CatalogueResponse{Documents: rows, Total: total})
}
