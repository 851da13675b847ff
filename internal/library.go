package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/libraryservice"
	"github.com/starford/folio/internal/storage"
)

// Library bundles the storage root, catalogue and service for one process.
type Library struct {
	Store   *storage.FS
	DB      *index.DB
	Service *libraryservice.Service
	Logger  *slog.Logger
}

// Open prepares the library described by the options for one-shot commands.
// The root is created when library.create is set and the catalogue is
// reconciled with the files on disk. Logs go to stderr.
func Open(ctx context.Context, opts ...Option) (*Library, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	if app.logger == nil {
		app.logger = stderrLogger(app.config.App.LogLevel)
	}
	return app.open(ctx, nil)
}

func (a *application) open(ctx context.Context, svcOpts []libraryservice.Option) (*Library, error) {
	cfg := a.config
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Library.Create {
		if err := os.MkdirAll(cfg.Library.Root, 0o755); err != nil {
			return nil, fmt.Errorf("create library root: %w", err)
		}
	}

	store, err := storage.NewFS(cfg.Library.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svcOpts = append([]libraryservice.Option{libraryservice.WithLogger(logger)}, svcOpts...)
	svc := libraryservice.NewService(store, db, svcOpts...)

	if err := svc.Reindex(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &Library{Store: store, DB: db, Service: svc, Logger: logger}, nil
}

// Close releases the catalogue.
func (l *Library) Close() error {
	return l.DB.Close()
}

// stderrLogger is used where stdout carries a protocol or command output.
func stderrLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
