package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.CatalogWatcher = (*FileWatcher)(nil)

const DefaultDebounce = 500 * time.Millisecond

// A FileWatcher reloads the catalog when its source file changes.
//
// The parent directory is watched so that editors replacing the file
// through rename keep triggering reloads. Bursts of events within
// the debounce interval cause a single reload.
type FileWatcher struct {
	path     string
	debounce time.Duration
	admin    port.CatalogAdmin
	w        *fsnotify.Watcher
}

func NewFileWatcher(
	path string, debounce time.Duration, admin port.CatalogAdmin,
) (*FileWatcher, error) {
	const op = "NewFileWatcher"

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{path: abs, debounce: debounce, admin: admin, w: w}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (fw *FileWatcher) Run(ctx context.Context) {
	const op = "FileWatcher.Run"
	log := slog.With("op", op, "path", fw.path)

	timer := time.NewTimer(fw.debounce)
	timer.Stop()
	defer timer.Stop()

	log.Info("watching catalog file")
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if fw.relevant(ev) {
				timer.Reset(fw.debounce)
			}

		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			log.Error("watch error", "err", err)

		case <-timer.C:
			stats, err := fw.admin.Reload(ctx)
			if err != nil {
				log.Error("reload on change failed", "err", err)
				continue
			}
			log.Info("catalog reloaded on change", "products", stats.TotalItems)
		}
	}
}

func (fw *FileWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != fw.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (fw *FileWatcher) Close() {
	const op = "FileWatcher.Close"
	if err := fw.w.Close(); err != nil {
		slog.Error("failed to close watcher", "op", op, "err", err)
	}
}
