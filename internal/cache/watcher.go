package cache

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on sourceRoot and invalidates the
// given cache entry whenever a structural-definition file or the
// catalog changes, until ctx is cancelled. Long-running consumers get
// prompt invalidation instead of waiting for the next mtime poll.
//
// New directories created at runtime are added to the watch list. The
// watcher only ever deletes the cache entry; it never touches the
// source tree.
func Watch(ctx context.Context, m *Manager, entry, sourceRoot string, logger *slog.Logger) error {
	if logger == nil {
		logger = m.logger
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, sourceRoot); err != nil {
		return err
	}

	logger.Info("cache watcher: started",
		slog.String("root", sourceRoot),
		slog.String("entry", entry))

	for {
		select {
		case <-ctx.Done():
			logger.Info("cache watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// Watch directories that appear at runtime.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("cache watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !structuralFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if err := m.Invalidate(entry); err != nil {
				logger.Warn("cache watcher: invalidate failed",
					slog.String("entry", entry),
					slog.String("error", err.Error()))
				continue
			}
			logger.Debug("cache watcher: entry invalidated",
				slog.String("trigger", ev.Name),
				slog.String("op", ev.Op.String()))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("cache watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// structuralFile reports whether a change to path can stale a profile.
func structuralFile(path string) bool {
	return strings.HasSuffix(path, ".xsd") || filepath.Base(path) == "catalog.xml"
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
