package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/coordinator"
)

func newTestCoordinator(t *testing.T, projectRoot string) *coordinator.Coordinator {
	t.Helper()
	cfg := config.Default()
	cfg.CacheRoot = t.TempDir()
	cfg.WorkerCount = 2

	c := coordinator.New()
	require.NoError(t, c.SetProject(projectRoot, cfg))
	return c
}

func TestAddDirsRecursiveSkipsExcludedAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, cacheDirName), 0o755))

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fsw.Close()

	require.NoError(t, addDirsRecursive(fsw, root))

	watched := map[string]struct{}{}
	for _, p := range fsw.WatchList() {
		watched[p] = struct{}{}
	}
	_, ok := watched[filepath.Join(root, "src")]
	assert.True(t, ok)
	_, ok = watched[filepath.Join(root, "build")]
	assert.False(t, ok)
	_, ok = watched[filepath.Join(root, ".git")]
	assert.False(t, ok)
	_, ok = watched[filepath.Join(root, cacheDirName)]
	assert.False(t, ok)
}

func TestTimerDebouncerFiresOnceAfterWindow(t *testing.T) {
	d := newTimerDebouncer(DebounceWindow(20 * time.Millisecond))
	ch := d.Reset()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("debounce never fired")
	}
}

func TestTimerDebouncerResetPostponesFiring(t *testing.T) {
	d := newTimerDebouncer(DebounceWindow(50 * time.Millisecond))
	ch := d.Reset()
	time.Sleep(25 * time.Millisecond)
	ch = d.Reset() // postpone before the first window elapses
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("debounce never fired after reset")
	}
}

func TestWatcherRunTriggersRefreshAfterFileWrite(t *testing.T) {
	dir := t.TempDir()
	c := newTestCoordinator(t, dir)

	results := make(chan error, 8)
	w := New(dir, c, DebounceWindow(20*time.Millisecond), func(err error) { results <- err })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cpp"), []byte("void f() {}\n"), 0o644))

	select {
	case err := <-results:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("refresh was never triggered after file write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
