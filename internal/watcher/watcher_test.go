package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to markdown", fsnotify.Event{Name: "/p/commands/go.md", Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: "/p/standards/css.md", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/p/workflows/plan.md", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/p/commands/go.md", Op: fsnotify.Chmod}, false},
		{"hidden file", fsnotify.Event{Name: "/p/.profilar-abc.tmp", Op: fsnotify.Write}, false},
		{"editor backup", fsnotify.Event{Name: "/p/go.md~", Op: fsnotify.Write}, false},
		{"vim swap", fsnotify.Event{Name: "/p/.go.md.swp", Op: fsnotify.Write}, false},
		{"temp suffix", fsnotify.Event{Name: "/p/out.tmp", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a.md", "b.md", "a.md", "c.md", "b.md"})
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, got)
}

func TestWatcherBatchesChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "commands"), 0o755))

	batches := make(chan []string, 1)
	w, err := New(50*time.Millisecond, func(paths []string) {
		select {
		case batches <- paths:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// A burst of writes inside the debounce window yields one batch.
	target := filepath.Join(dir, "commands", "go.md")
	require.NoError(t, os.WriteFile(target, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("two"), 0o644))

	select {
	case batch := <-batches:
		assert.Contains(t, batch, target)
		assert.Len(t, dedupe(batch), len(batch), "batches arrive already deduplicated")
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch arrived")
	}
}

func TestWatcherIgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()

	batches := make(chan []string, 1)
	w, err := New(50*time.Millisecond, func(paths []string) {
		select {
		case batches <- paths:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.tmp"), []byte("x"), 0o644))

	select {
	case batch := <-batches:
		t.Fatalf("unexpected batch for temp file: %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}
