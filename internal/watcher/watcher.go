// Package watcher watches a profile source tree for changes and triggers
// recompilation with debouncing, so a burst of editor saves produces one
// rebuild instead of many.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/profilar/internal/logging"
)

// ChangeHandler handles a debounced batch of changed paths.
type ChangeHandler func(paths []string)

// Watcher watches directories recursively for file changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	handler   ChangeHandler
	logger    logging.Logger
}

// New creates a file watcher. Changes are batched for the debounce window
// before handler runs.
func New(debounce time.Duration, handler ChangeHandler, logger logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		debounce:  debounce,
		handler:   handler,
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// AddRecursive watches root and every directory beneath it.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}

		return w.fsWatcher.Add(path)
	})
}

// Start blocks processing events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending []string
	)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}

			// New directories need watching too.
			if event.Op.Has(fsnotify.Create) {
				_ = w.AddRecursive(event.Name)
			}

			pending = append(pending, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			batch := dedupe(pending)
			pending = nil
			timer = nil
			timerC = nil

			w.logger.Debug(context.Background(), "dispatching change batch", "files", len(batch))
			w.handler(batch)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(context.Background(), err, "watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)

	// Editor temp files and our own in-flight writes.
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") &&
		!strings.HasSuffix(base, ".tmp") && !strings.HasSuffix(base, ".swp")
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	return out
}
