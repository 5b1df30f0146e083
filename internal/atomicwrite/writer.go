// Package atomicwrite writes files via a temp-file-then-rename discipline so
// a crash mid-write never leaves a partial file at the destination. The temp
// file is created in the destination's own directory, keeping the rename on
// one filesystem and therefore atomic.
package atomicwrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	profErrors "github.com/conneroisu/profilar/internal/errors"
	"github.com/conneroisu/profilar/internal/logging"
)

// Writer performs atomic writes and tracks its own in-flight temp files.
// Each Writer owns its registry: defer Cleanup (or wire it to a signal
// handler) and interrupted runs leave no stray temp files behind.
type Writer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	dryRun  bool
	logger  logging.Logger
}

// NewWriter creates a writer. With dryRun set all filesystem mutation is
// short-circuited and only the would-be destination is reported.
func NewWriter(dryRun bool, logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Writer{
		pending: make(map[string]struct{}),
		dryRun:  dryRun,
		logger:  logger.WithComponent("writer"),
	}
}

// DryRun reports whether the writer is in dry-run mode.
func (w *Writer) DryRun() bool {
	return w.dryRun
}

// Write atomically writes content to destination, creating parent
// directories as needed.
func (w *Writer) Write(ctx context.Context, content []byte, destination string) error {
	if w.dryRun {
		w.logger.Info(ctx, "dry run: would write file",
			"destination", destination, "bytes", len(content))

		return nil
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return profErrors.NewIOError("E_MKDIR",
			fmt.Sprintf("failed to create directory %s", dir), err).WithFile(destination)
	}

	tmp, err := os.CreateTemp(dir, ".profilar-*.tmp")
	if err != nil {
		return profErrors.NewIOError("E_TEMP",
			fmt.Sprintf("failed to create temp file in %s", dir), err).WithFile(destination)
	}

	tmpName := tmp.Name()
	w.register(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		w.discard(tmpName)

		return profErrors.NewIOError("E_WRITE", "failed to write temp file", err).WithFile(destination)
	}

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		w.discard(tmpName)

		return profErrors.NewIOError("E_CHMOD", "failed to set file mode", err).WithFile(destination)
	}

	if err := tmp.Close(); err != nil {
		w.discard(tmpName)

		return profErrors.NewIOError("E_CLOSE", "failed to close temp file", err).WithFile(destination)
	}

	if err := os.Rename(tmpName, destination); err != nil {
		w.discard(tmpName)

		return profErrors.NewIOError("E_RENAME",
			fmt.Sprintf("failed to rename temp file over %s", destination), err).WithFile(destination)
	}

	w.deregister(tmpName)
	w.logger.Debug(ctx, "wrote file", "destination", destination, "bytes", len(content))

	return nil
}

// Cleanup removes any temp files still registered, typically because a run
// was interrupted between creation and rename.
func (w *Writer) Cleanup() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for name := range w.pending {
		os.Remove(name)
		delete(w.pending, name)
	}
}

// PendingCount returns how many temp files are currently registered.
func (w *Writer) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.pending)
}

func (w *Writer) register(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[name] = struct{}{}
}

func (w *Writer) deregister(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, name)
}

// discard removes a temp file that failed before rename.
func (w *Writer) discard(name string) {
	os.Remove(name)
	w.deregister(name)
}
