package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAdmin struct {
	reloads atomic.Int32
}

func (a *countingAdmin) Stats(context.Context) (domain.CatalogStats, error) {
	return domain.CatalogStats{}, nil
}

func (a *countingAdmin) Reload(context.Context) (domain.CatalogStats, error) {
	a.reloads.Add(1)
	return domain.CatalogStats{TotalItems: 1}, nil
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	admin := &countingAdmin{}
	fw, err := NewFileWatcher(path, 50*time.Millisecond, admin)
	require.NoError(t, err)
	defer fw.Close()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go fw.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), admin.reloads.Load())

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`[{}]`), 0o600))
	}

	assert.Eventually(t, func() bool {
		return admin.reloads.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_relevant(t *testing.T) {
	fw := &FileWatcher{path: "/data/items.json"}

	assert.True(t, fw.relevant(fsnotify.Event{Name: "/data/items.json", Op: fsnotify.Write}))
	assert.True(t, fw.relevant(fsnotify.Event{Name: "/data/items.json", Op: fsnotify.Create}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: "/data/items.json", Op: fsnotify.Chmod}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: "/data/other.json", Op: fsnotify.Write}))
}
