package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/doctype"
	"github.com/starford/folio/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven catalogue change.
// kind is one of "created", "updated", "deleted"; path is library-relative.
type EventCallback func(kind string, path string)

// Watch keeps the catalogue in step with the library root until ctx is
// cancelled. It only touches the catalogue; callers that hold an in-memory
// tree decide themselves when to rescan.
//
// Directories created at runtime are added to the watch list. Renames
// and directory removals trigger a debounced reconciliation pass.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	notify := func(kind, rel string) {
		if cb != nil {
			cb(kind, rel)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if storage.IsTemp(name) {
				continue
			}
			rel, relErr := store.Rel(ev.Name)
			if relErr != nil || rel == "" {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed", slog.String("path", rel), slog.String("error", addErr.Error()))
					}
					indexDir(db, store, rel, logger, notify)
					continue
				}
			}

			_, classifyErr := doctype.FromFilename(name)
			documentEvent := classifyErr == nil

			switch {
			case documentEvent && ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if kind, changed := refresh(db, store, rel, logger); changed {
					notify(kind, rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if documentEvent {
					if cs, _ := db.GetChecksum(rel); cs != "" {
						if delErr := db.DeleteDocument(rel); delErr != nil {
							logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
						} else {
							notify("deleted", rel)
						}
					}
				} else {
					// Possibly a directory; drop everything catalogued below it.
					removed, delErr := db.DeletePrefix(rel)
					if delErr != nil {
						logger.Warn("watcher: delete prefix failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					}
					for _, p := range removed {
						notify("deleted", p)
					}
				}
				if ev.Op&fsnotify.Rename != 0 || !documentEvent {
					scheduleReconcile()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// refresh re-catalogues one document when its checksum changed and reports
// whether it was new.
func refresh(db *DB, store storage.Provider, rel string, logger *slog.Logger) (kind string, changed bool) {
	meta, data, err := store.Stat(rel)
	if err != nil {
		logger.Debug("watcher: stat failed", slog.String("path", rel), slog.String("error", err.Error()))
		return "", false
	}
	prev, _ := db.GetChecksum(rel)
	if prev == meta.Checksum {
		return "", false
	}
	if err := IndexDocument(db, meta, data); err != nil {
		logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return "", false
	}
	logger.Debug("watcher: indexed", slog.String("path", rel))
	if prev == "" {
		return "created", true
	}
	return "updated", true
}

// reconcile removes catalogue rows without a file and catalogues files
// that are missing or stale.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify func(kind, rel string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
	}
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if delErr := db.DeleteDocument(p); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			notify("deleted", p)
		}
	}

	for _, m := range metas {
		prev, known := checksums[m.Path]
		if known && prev == m.Checksum {
			continue
		}
		data, readErr := store.Read(m.Path)
		if readErr != nil {
			continue
		}
		if idxErr := IndexDocument(db, m, data); idxErr != nil {
			continue
		}
		if known {
			notify("updated", m.Path)
		} else {
			notify("created", m.Path)
		}
	}
}

// indexDir catalogues documents already present in a newly created directory.
func indexDir(db *DB, store storage.Provider, rel string, logger *slog.Logger, notify func(kind, rel string)) {
	metas, err := store.List(rel)
	if err != nil {
		logger.Debug("watcher: list new dir failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	for _, m := range metas {
		data, readErr := store.Read(m.Path)
		if readErr != nil {
			continue
		}
		if idxErr := IndexDocument(db, m, data); idxErr == nil {
			notify("created", m.Path)
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
