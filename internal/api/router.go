package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/libraryservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *libraryservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/types", h.Types)
	r.Get("/tree", h.Tree)
	r.Get("/outline", h.Outline)

	r.Post("/directories", h.CreateDirectory)
	r.Put("/directories/*", h.RenameDirectory)
	r.Delete("/directories/*", h.DeleteDirectory)

	r.Post("/documents", h.CreateDocument)
	r.Post("/documents/rename", h.RenameDocument)
	r.Post("/documents/save-as", h.SaveDocumentAs)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.SaveDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	r.Post("/import", h.Import)

	r.Get("/search", h.Search)
	r.Get("/catalogue", h.Catalogue)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
