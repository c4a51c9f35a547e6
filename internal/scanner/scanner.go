// Package scanner enumerates a project's source and header files,
// classifying each as project or dependency code and excluding build
// artifacts and VCS directories, deterministically and reproducibly.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/fingerprint"
)

// defaultExcludedDirs are always skipped regardless of configuration.
var defaultExcludedDirs = []string{"build", "out", ".git", ".cache"}

// File is one scanned source/header file.
type File struct {
	Path      string // absolute
	IsProject bool
}

// Scanner walks a project root and emits classified files.
type Scanner struct {
	projectRoot  string
	cacheDirName string
	cfg          config.Config
}

// New builds a Scanner for projectRoot. cacheDirName is excluded in
// addition to the default build/VCS directories so the scanner never
// tries to parse its own cache.
func New(projectRoot, cacheDirName string, cfg config.Config) *Scanner {
	return &Scanner{projectRoot: projectRoot, cacheDirName: cacheDirName, cfg: cfg}
}

// Scan walks the project root and returns classified files in
// deterministic (lexicographic, by absolute path) order.
func (s *Scanner) Scan() ([]File, error) {
	excluded := append([]string(nil), defaultExcludedDirs...)
	if s.cacheDirName != "" {
		excluded = append(excluded, s.cacheDirName)
	}

	seen := map[string]struct{}{}
	var files []File

	err := filepath.WalkDir(s.projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isExcludedDir(d.Name(), excluded) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !hasExtension(ext, s.cfg.SupportedExtensions) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if _, dup := seen[abs]; dup {
			return nil
		}
		seen[abs] = struct{}{}

		files = append(files, File{
			Path:      abs,
			IsProject: s.classify(abs),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isExcludedDir(name string, excluded []string) bool {
	for _, e := range excluded {
		if name == e {
			return true
		}
	}
	return false
}

// ExcludedDirNames returns the directory names Scan always skips, plus
// cacheDirName — the same exclusion list a directory watcher should
// apply so it never registers a watch on the cache or build output.
func ExcludedDirNames(cacheDirName string) []string {
	excluded := append([]string(nil), defaultExcludedDirs...)
	if cacheDirName != "" {
		excluded = append(excluded, cacheDirName)
	}
	return excluded
}

// IsExcludedDirName reports whether name (a directory's base name, not a
// path) is on the exclusion list.
func IsExcludedDirName(name string, excluded []string) bool {
	return isExcludedDir(name, excluded)
}

func hasExtension(ext string, supported []string) bool {
	for _, s := range supported {
		if ext == s {
			return true
		}
	}
	return false
}

// classify reports whether abs is project code (default) as opposed to
// dependency code living under one of the configured dependency roots.
func (s *Scanner) classify(abs string) bool {
	rel, err := filepath.Rel(s.projectRoot, abs)
	if err != nil {
		return true
	}
	relSlash := fingerprint.SlashPath(rel)

	for _, root := range s.cfg.DependencyRoots {
		rootSlash := fingerprint.SlashPath(strings.TrimSuffix(root, "/")) + "/"
		if strings.HasPrefix(relSlash, rootSlash) {
			return false
		}
		if ok, _ := doublestar.Match(rootSlash+"**", relSlash); ok {
			return false
		}
	}
	return true
}
