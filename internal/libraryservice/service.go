// Package libraryservice coordinates the in-memory library tree, the
// filesystem root and the search catalogue behind one serialized API.
package libraryservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/library"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// DocumentDetail is the full representation of an opened document.
type DocumentDetail struct {
	Path         string       `json:"path"`
	Title        string       `json:"title"`
	DisplayTitle string       `json:"display_title,omitempty"`
	Type         doctype.Type `json:"type"`
	Content      string       `json:"content"`
	Checksum     string       `json:"checksum"`
	Size         int64        `json:"size"`
	Tags         []string     `json:"tags"`
}

// ImportResult describes where an imported file landed.
type ImportResult struct {
	Path     string       `json:"path"`
	Document bool         `json:"document"` // false when the extension is not a known type
	Type     doctype.Type `json:"type,omitempty"`
	Size     int64        `json:"size"`
}

// EventHook receives every successful mutation.
type EventHook func(sse.Change)

// Option configures a Service.
type Option func(*Service)

// WithEvents registers hook for mutation events.
func WithEvents(hook EventHook) Option {
	return func(s *Service) { s.events = hook }
}

// WithLogger sets the logger used for catalogue maintenance warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service owns the library tree. All tree access is serialized by mu; the
// entity layer assumes a single logical actor.
type Service struct {
	mu     sync.Mutex
	tree   *library.Tree
	store  storage.Provider
	db     index.Catalogue
	events EventHook
	logger *slog.Logger
}

// NewService creates a service over the library rooted at store.Root().
func NewService(store storage.Provider, db index.Catalogue, opts ...Option) *Service {
	s := &Service{
		tree:   library.NewTree(store.Root()),
		store:  store,
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree scans dir and returns its listing.
func (s *Service) Tree(_ context.Context, dir string) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := s.tree.Scan(id); err != nil {
		return nil, notFound(err)
	}
	return s.listing(id)
}

func (s *Service) listing(id library.DirID) (*models.Listing, error) {
	d, err := s.tree.Get(id)
	if err != nil {
		return nil, err
	}
	rel := s.tree.RelPath(id)
	out := &models.Listing{
		Path:        rel,
		Name:        d.Name,
		Directories: make([]models.DirectoryEntry, 0, len(d.Subdirs)),
		Documents:   make([]models.DocumentEntry, 0, len(d.Documents)),
	}
	for _, c := range d.Subdirs {
		child, _ := s.tree.Get(c)
		out.Directories = append(out.Directories, models.DirectoryEntry{Path: join(rel, child.Name), Name: child.Name})
	}
	for _, doc := range d.Documents {
		out.Documents = append(out.Documents, models.DocumentEntry{Path: join(rel, doc.FileName()), Title: doc.Title, Type: doc.Type})
	}
	return out, nil
}

// CreateDirectory creates name below parent. Creating an existing directory
// succeeds and returns it.
func (s *Service) CreateDirectory(_ context.Context, parent, name string) (_ *models.DirectoryEntry, err error) {
	defer observe("create_directory", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	pid, err := s.tree.Resolve(parent)
	if err != nil {
		return nil, err
	}
	id, err := s.tree.CreateSubdirectory(pid, name)
	if err != nil {
		return nil, err
	}
	rel := s.tree.RelPath(id)
	s.emit(sse.Directory, "created", rel, "")
	return &models.DirectoryEntry{Path: rel, Name: name}, nil
}

// RenameDirectory renames the directory at dir to newName within its parent.
func (s *Service) RenameDirectory(_ context.Context, dir, newName string) (_ *models.DirectoryEntry, err error) {
	defer observe("rename_directory", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	oldRel := s.tree.RelPath(id)
	if err := s.tree.Rename(id, newName); err != nil {
		return nil, err
	}
	newRel := s.tree.RelPath(id)
	s.uncatalogueDir(oldRel)
	s.catalogueDir(newRel)
	s.emit(sse.Directory, "renamed", newRel, oldRel)
	return &models.DirectoryEntry{Path: newRel, Name: newName}, nil
}

// DeleteDirectory removes dir and everything below it. The root is refused.
func (s *Service) DeleteDirectory(_ context.Context, dir string) (err error) {
	defer observe("delete_directory", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return err
	}
	rel := s.tree.RelPath(id)
	if err := s.tree.Delete(id); err != nil {
		return err
	}
	s.uncatalogueDir(rel)
	s.emit(sse.Directory, "deleted", rel, "")
	return nil
}

// CreateDocument allocates an empty document titled title in dir.
func (s *Service) CreateDocument(_ context.Context, dir, title string, typ doctype.Type) (_ *DocumentDetail, err error) {
	defer observe("create_document", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	doc, err := s.tree.CreateDocument(id, title, typ)
	if err != nil {
		return nil, err
	}
	rel := join(s.tree.RelPath(id), doc.FileName())
	s.catalogue(rel)
	s.emit(sse.Document, "created", rel, "")
	return detail(rel, doc, "")
}

// OpenDocument loads the document at p.
func (s *Service) OpenDocument(_ context.Context, p string) (*DocumentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, doc, rel, err := s.locate(p)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(doc.FullPath()); errors.Is(err, fs.ErrNotExist) {
		// Removed behind our back: forget the stale entry.
		if scanErr := s.tree.Scan(id); scanErr != nil {
			s.logger.Warn("tree: rescan failed", slog.String("path", rel), slog.String("error", scanErr.Error()))
		}
		s.uncatalogue(rel)
		return nil, fmt.Errorf("libraryservice: open %s: %w", p, apperr.ErrNotFound)
	}
	if err := doc.Load(); err != nil {
		return nil, notFound(err)
	}
	content, _ := doc.Content()
	return detail(rel, doc, content)
}

// SaveDocumentAs writes the content of the document at p to a new file at
// target, a slash-separated path whose extension picks the new type. An
// existing target is refused.
func (s *Service) SaveDocumentAs(_ context.Context, p, target string) (_ *DocumentDetail, err error) {
	defer observe("save_document_as", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, src, srcRel, err := s.locate(p)
	if err != nil {
		return nil, err
	}
	dir, name := path.Split(strings.Trim(target, "/"))
	if name == "" {
		return nil, fmt.Errorf("libraryservice: save as %q: %w", target, apperr.ErrInvalidName)
	}
	if _, err := doctype.FromFilename(name); err != nil {
		return nil, err
	}
	if err := library.ValidateName(strings.TrimSuffix(name, path.Ext(name))); err != nil {
		return nil, err
	}
	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	abs := filepath.Join(s.tree.FullPath(id), name)
	if _, err := os.Lstat(abs); err == nil {
		return nil, fmt.Errorf("libraryservice: save as %s: %w", target, apperr.ErrAlreadyExists)
	}

	e, err := editor.For(src.Type)
	if err != nil {
		return nil, err
	}
	if err := e.Load(src.FullPath()); err != nil {
		return nil, notFound(err)
	}
	if err := e.Save(abs); err != nil {
		return nil, err
	}
	doc, err := s.tree.Adopt(id, name)
	if err != nil {
		return nil, err
	}
	rel := join(s.tree.RelPath(id), name)
	s.catalogue(rel)
	s.emit(sse.Document, "created", rel, srcRel)
	return detail(rel, doc, e.Content())
}

// Outline scans dir and every directory below it and returns the nested
// result.
func (s *Service) Outline(_ context.Context, dir string) (*models.Outline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := s.tree.ScanAll(id); err != nil {
		return nil, notFound(err)
	}
	return s.outline(id)
}

func (s *Service) outline(id library.DirID) (*models.Outline, error) {
	l, err := s.listing(id)
	if err != nil {
		return nil, err
	}
	out := &models.Outline{
		Path:        l.Path,
		Name:        l.Name,
		Directories: make([]models.Outline, 0, len(l.Directories)),
		Documents:   l.Documents,
	}
	d, _ := s.tree.Get(id)
	for _, c := range d.Subdirs {
		sub, err := s.outline(c)
		if err != nil {
			return nil, err
		}
		out.Directories = append(out.Directories, *sub)
	}
	return out, nil
}

// SaveDocument replaces the content of the document at p. A non-empty
// ifMatch must equal the checksum of the file currently on disk.
func (s *Service) SaveDocument(_ context.Context, p, content, ifMatch string) (_ *DocumentDetail, err error) {
	defer observe("save_document", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, doc, rel, err := s.locate(p)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" {
		current, err := s.store.Read(rel)
		if err != nil {
			return nil, notFound(err)
		}
		if !checksum.Matches(current, ifMatch) {
			return nil, fmt.Errorf("libraryservice: save %s: %w", p, apperr.ErrConflict)
		}
	}
	if err := doc.Save(content); err != nil {
		return nil, err
	}
	s.catalogue(rel)
	s.emit(sse.Document, "updated", rel, "")
	return detail(rel, doc, content)
}

// RenameDocument gives the document at p a new title, keeping its type.
func (s *Service) RenameDocument(_ context.Context, p, newTitle string) (_ *models.DocumentEntry, err error) {
	defer observe("rename_document", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, doc, oldRel, err := s.locate(p)
	if err != nil {
		return nil, err
	}
	if err := s.tree.RenameDocument(id, doc, newTitle); err != nil {
		return nil, err
	}
	newRel := join(s.tree.RelPath(id), doc.FileName())
	if newRel != oldRel {
		s.uncatalogue(oldRel)
		s.catalogue(newRel)
		s.emit(sse.Document, "renamed", newRel, oldRel)
	}
	return &models.DocumentEntry{Path: newRel, Title: doc.Title, Type: doc.Type}, nil
}

// DeleteDocument removes the document at p.
func (s *Service) DeleteDocument(_ context.Context, p string) (err error) {
	defer observe("delete_document", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, doc, rel, err := s.locate(p)
	if err != nil {
		return err
	}
	if err := s.tree.DeleteDocument(id, doc); err != nil {
		return err
	}
	s.uncatalogue(rel)
	s.emit(sse.Document, "deleted", rel, "")
	return nil
}

// Import copies the host file src into dir.
func (s *Service) Import(_ context.Context, dir, src string) (_ *ImportResult, err error) {
	defer observe("import", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	dest, doc, err := s.tree.Import(id, src)
	if err != nil {
		return nil, err
	}
	return s.imported(dest, doc)
}

// ImportUpload writes uploaded bytes into dir under name, avoiding collisions.
func (s *Service) ImportUpload(_ context.Context, dir, name string, data []byte) (_ *ImportResult, err error) {
	defer observe("import", &err)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.tree.Resolve(dir)
	if err != nil {
		return nil, err
	}
	dest, doc, err := s.tree.ImportBytes(id, path.Base(name), data)
	if err != nil {
		return nil, err
	}
	return s.imported(dest, doc)
}

func (s *Service) imported(dest string, doc *library.Document) (*ImportResult, error) {
	rel, err := s.store.Rel(dest)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Path: rel, Document: doc != nil}
	if info, err := os.Stat(dest); err == nil {
		res.Size = info.Size()
	}
	if doc != nil {
		res.Type = doc.Type
		s.catalogue(rel)
		s.emit(sse.Document, "created", rel, "")
	}
	metrics.RecordImport(res.Size)
	return res, nil
}

// Search queries the catalogue.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(query, limit)
}

// List returns one page of the catalogue.
func (s *Service) List(_ context.Context, limit, offset int, typ doctype.Type, sort string) ([]index.DocumentRow, int, error) {
	return s.db.ListDocuments(limit, offset, typ, sort)
}

// Reindex reconciles the catalogue with the library when the catalogue is
// the concrete SQLite index.
func (s *Service) Reindex(_ context.Context) error {
	db, ok := s.db.(*index.DB)
	if !ok {
		return nil
	}
	start := time.Now()
	err := index.Sync(db, s.store, s.logger)
	metrics.RecordSync(time.Since(start))
	s.refreshGauge()
	return err
}

// locate resolves a document path, scanning its directory once when the
// document is not yet known in memory.
func (s *Service) locate(p string) (library.DirID, *library.Document, string, error) {
	dir, name := path.Split(strings.Trim(p, "/"))
	if name == "" {
		return library.None, nil, "", fmt.Errorf("libraryservice: %q: %w", p, apperr.ErrInvalidName)
	}
	if _, err := doctype.FromFilename(name); err != nil {
		return library.None, nil, "", err
	}
	id, err := s.tree.Resolve(dir)
	if err != nil {
		return library.None, nil, "", err
	}
	doc, ok := s.tree.DocumentByFileName(id, name)
	if !ok {
		if err := s.tree.Scan(id); err != nil {
			return library.None, nil, "", notFound(err)
		}
		if doc, ok = s.tree.DocumentByFileName(id, name); !ok {
			return library.None, nil, "", fmt.Errorf("libraryservice: %s: %w", p, apperr.ErrNotFound)
		}
	}
	return id, doc, join(s.tree.RelPath(id), doc.FileName()), nil
}

// Catalogue maintenance is best effort: the filesystem already changed, so
// failures are logged and left for the watcher or the next Reindex.

func (s *Service) catalogue(rel string) {
	meta, data, err := s.store.Stat(rel)
	if err == nil {
		err = index.IndexDocument(s.db, meta, data)
	}
	if err != nil {
		s.logger.Warn("catalogue: index failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	s.refreshGauge()
}

func (s *Service) uncatalogue(rel string) {
	if err := s.db.DeleteDocument(rel); err != nil {
		s.logger.Warn("catalogue: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	s.refreshGauge()
}

func (s *Service) catalogueDir(rel string) {
	metas, err := s.store.List(rel)
	if err != nil {
		s.logger.Warn("catalogue: list failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err == nil {
			err = index.IndexDocument(s.db, m, data)
		}
		if err != nil {
			s.logger.Warn("catalogue: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		}
	}
	s.refreshGauge()
}

func (s *Service) uncatalogueDir(rel string) {
	if _, err := s.db.DeletePrefix(rel); err != nil {
		s.logger.Warn("catalogue: delete prefix failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	s.refreshGauge()
}

func (s *Service) refreshGauge() {
	if n, err := s.db.Count(); err == nil {
		metrics.SetCatalogueDocuments(n)
	}
}

func (s *Service) emit(subject sse.Subject, kind, p, from string) {
	if s.events != nil {
		s.events(sse.Change{Subject: subject, Kind: kind, Path: p, From: from})
	}
}

func detail(p string, doc *library.Document, content string) (*DocumentDetail, error) {
	e, err := editor.For(doc.Type)
	if err != nil {
		return nil, err
	}
	e.SetContent(content)
	d := &DocumentDetail{
		Path:         p,
		Title:        doc.Title,
		DisplayTitle: editor.TitleOf(e),
		Type:         doc.Type,
		Content:      content,
		Checksum:     checksum.Sum([]byte(content)),
		Size:         int64(len(content)),
		Tags:         []string{},
	}
	if md, ok := e.(*editor.Markdown); ok {
		if tags := md.Tags(); tags != nil {
			d.Tags = tags
		}
	}
	return d, nil
}

func observe(op string, err *error) {
	metrics.RecordOperation(op, *err)
}

func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
	}
	return err
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
