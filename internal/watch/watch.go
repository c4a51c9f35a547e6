// Package watch drives Coordinator.Refresh from filesystem change
// events: an fsnotify.Watcher registered on every non-excluded project
// directory, debounced so a burst of writes (a save-all, a git checkout)
// triggers one refresh rather than one per file. Additive to the core —
// the coordinator already exposes Refresh; this is a thin driver.
package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/cxxindex/cxxindex/internal/coordinator"
	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/scanner"
)

// cacheDirName matches the coordinator's own scanner construction, so a
// watch loop never registers a watch inside the project's own cache.
const cacheDirName = ".cxxindex-cache"

// Watcher drives repeated Coordinator.Refresh calls from filesystem
// change events on a project tree.
type Watcher struct {
	projectRoot string
	coord       *coordinator.Coordinator
	debounce    debouncer
	onRefresh   func(error)
}

// debouncer abstracts the debounce timer so tests can drive it
// synchronously instead of racing a real time.Timer.
type debouncer interface {
	// Reset (re)starts the debounce window, returning a channel that
	// receives once when the window elapses without being reset again.
	Reset() <-chan struct{}
	Stop()
}

// New builds a Watcher for projectRoot, driving coord.Refresh on a
// debounce timer of debounceWindow after writes settle. onRefresh, if
// non-nil, is called after every triggered refresh attempt (including
// failures) — used by the CLI to report status, optional for library
// callers.
func New(projectRoot string, coord *coordinator.Coordinator, debounceWindow DebounceWindow, onRefresh func(error)) *Watcher {
	return &Watcher{
		projectRoot: projectRoot,
		coord:       coord,
		debounce:    newTimerDebouncer(debounceWindow),
		onRefresh:   onRefresh,
	}
}

// Run registers watches on projectRoot and every non-excluded
// subdirectory, then blocks, triggering Refresh after each debounce
// window, until ctx is cancelled or the watcher's event or error channel
// closes. Errors the watcher reports while running are read and ignored.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return diagnostics.Wrap(diagnostics.ConfigError, err, "constructing filesystem watcher")
	}
	defer fsw.Close()

	if err := addDirsRecursive(fsw, w.projectRoot); err != nil {
		return diagnostics.Wrap(diagnostics.ConfigError, err, "registering watch directories under %s", w.projectRoot)
	}
	defer w.debounce.Stop()

	// fired is nil (never selected) until the first event arms the
	// debounce timer, same as vjache-cie's own timerCh idle/armed split.
	var fired <-chan struct{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirsRecursive(fsw, event.Name)
				}
			}
			fired = w.debounce.Reset()
		case _, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
		case <-fired:
			fired = nil
			err := w.coord.Refresh(ctx)
			if w.onRefresh != nil {
				w.onRefresh(err)
			}
		}
	}
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	excluded := scanner.ExcludedDirNames(cacheDirName)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if scanner.IsExcludedDirName(base, excluded) || (hiddenDir(base) && path != root) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil && !os.IsPermission(err) {
			return err
		}
		return nil
	})
}

func hiddenDir(base string) bool {
	return len(base) > 1 && base[0] == '.'
}
