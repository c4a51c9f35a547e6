// Package ccdb loads and caches a compile_commands.json compilation
// database and translates file paths into compiler argument vectors,
// falling back to a configured default argv (plus auto-discovered
// dependency-manager include roots) when a file has no entry.
package ccdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/diagnostics"
)

// jsonEntry mirrors one object of a compile_commands.json array.
type jsonEntry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command"`
	Arguments []string `json:"arguments"`
}

// CCDB is the loaded, memoized compilation database for one project.
type CCDB struct {
	mu           sync.RWMutex
	path         string
	projectRoot  string
	cfg          config.Config
	mtime        time.Time
	byFile       map[string][]string
	loadedOnce   bool
}

// New creates a CCDB bound to the configured compile_commands_path,
// resolved relative to the project root. Nothing is read from disk until
// Load is called.
func New(projectRoot string, cfg config.Config) *CCDB {
	path := cfg.CompileCommandsPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, path)
	}
	return &CCDB{path: path, projectRoot: projectRoot, cfg: cfg, byFile: map[string][]string{}}
}

// Load reads the compile_commands.json file. A malformed file fails with
// a ConfigError and keeps whatever was previously cached; a missing file
// puts the CCDB into disabled mode where args_for_with_fallback always
// returns the fallback argv.
func (c *CCDB) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			c.loadedOnce = true
			c.mu.Unlock()
			return nil
		}
		return diagnostics.Wrap(diagnostics.ConfigError, err, "reading compilation database %s", c.path)
	}

	var entries []jsonEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return diagnostics.Wrap(diagnostics.ConfigError, err, "parsing compilation database %s", c.path)
	}

	fresh := make(map[string][]string, len(entries))
	for _, e := range entries {
		argv := e.Arguments
		if len(argv) == 0 && e.Command != "" {
			split, err := Split(e.Command)
			if err != nil {
				return diagnostics.Wrap(diagnostics.ConfigError, err, "splitting command for %s", e.File)
			}
			argv = split
		}

		abs := e.File
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(e.Directory, e.File)
		}
		abs, err = filepath.Abs(abs)
		if err != nil {
			return diagnostics.Wrap(diagnostics.ConfigError, err, "resolving %s", e.File)
		}
		fresh[abs] = argv
	}

	info, statErr := os.Stat(c.path)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFile = fresh
	c.loadedOnce = true
	if statErr == nil {
		c.mtime = info.ModTime()
	}
	return nil
}

// RefreshIfModified re-reads the database if its mtime advanced since the
// last load. Idempotent when the file is unchanged.
func (c *CCDB) RefreshIfModified() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "stat compilation database")
	}

	c.mu.RLock()
	stale := info.ModTime().After(c.mtime) || !c.loadedOnce
	c.mu.RUnlock()
	if !stale {
		return nil
	}
	return c.Load()
}

// ArgsFor returns the argv recorded for path, or nil, false if absent.
func (c *CCDB) ArgsFor(path string) ([]string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	argv, ok := c.byFile[abs]
	return argv, ok
}

// ArgsForWithFallback returns the recorded argv for path, or the computed
// fallback argv (base fallback flags plus auto-discovered dependency
// include roots) when the file has no compile-database entry.
func (c *CCDB) ArgsForWithFallback(path string) []string {
	if argv, ok := c.ArgsFor(path); ok {
		return argv
	}
	return c.FallbackArgs()
}

// FallbackArgs computes the configured fallback flags plus any
// auto-discovered vcpkg include roots under the project root.
func (c *CCDB) FallbackArgs() []string {
	argv := append([]string(nil), c.cfg.FlattenFallbackArgs()...)
	argv = append(argv, c.discoverDependencyIncludeRoots()...)
	return argv
}

// discoverDependencyIncludeRoots globs `vcpkg_installed/*/include` under
// the project root (doublestar so it composes with the scanner's
// slash-normalized exclusion patterns) and returns one -I flag per match.
func (c *CCDB) discoverDependencyIncludeRoots() []string {
	var includes []string
	for _, root := range c.cfg.DependencyRoots {
		pattern := filepath.ToSlash(filepath.Join(c.projectRoot, root, "*", "include"))
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			includes = append(includes, "-I"+m)
		}
	}
	return includes
}

// ShouldProcess reports whether path should be handed to the parser: its
// extension is in the configured supported set, or it has an explicit
// compile-database entry (headers pulled in only via -include, say).
func (c *CCDB) ShouldProcess(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range c.cfg.SupportedExtensions {
		if ext == want {
			return true
		}
	}
	_, ok := c.ArgsFor(path)
	return ok
}
