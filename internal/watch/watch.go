// Package watch triggers pipeline rebuilds: a filesystem watcher with
// debounce for watch mode, and a gocron scheduler for periodic full rebuilds
// in daemon mode.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a source tree and invokes a rebuild callback after
// changes settle.
type Watcher struct {
	sourceDir string
	debounce  time.Duration
	rebuild   func()
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
}

// NewWatcher creates a watcher over sourceDir. rebuild is invoked once per
// settled burst of filesystem changes.
func NewWatcher(sourceDir string, debounce time.Duration, rebuild func(), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		sourceDir: sourceDir,
		debounce:  debounce,
		rebuild:   rebuild,
		watcher:   fsw,
		logger:    logger,
	}, nil
}

// Start watches the source tree until ctx is canceled. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addRecursive(w.sourceDir); err != nil {
		return err
	}
	w.logger.Info("watching for changes", "sourceDir", w.sourceDir, "debounce", w.debounce)

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			// New directories need to be picked up for further events.
			if event.Has(fsnotify.Create) {
				_ = w.addRecursive(event.Name)
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-pending:
			w.rebuild()
		}
	}
}

// addRecursive registers dir and all subdirectories with the watcher. Paths
// that are not directories are ignored.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // path may have vanished mid-walk
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
