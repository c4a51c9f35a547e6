// Package fingerprint computes the stable identifiers the cache layout and
// the incremental-invalidation logic key off: a project fingerprint (which
// picks the cache directory) and the MD5 content/compile-args hashes that
// decide whether a file is a cache hit.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Project returns a stable fingerprint for the absolute project path,
// used as the cache subdirectory name. The spec leaves the hashing
// algorithm for this value unspecified (only file/args hashes are
// pinned to MD5), so a fast non-cryptographic hash is used here.
func Project(absProjectPath string) string {
	clean := filepath.Clean(absProjectPath)
	h := xxhash.Sum64String(clean)
	return fmt.Sprintf("%016x", h)
}

// FileContent returns the MD5 hex digest of a file's contents. Content
// sufficiency, not cryptographic strength, is all that's required: two
// files collide only if their bytes are identical.
func FileContent(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CompileArgs returns the MD5 hex digest of the concatenated argv that
// will be passed to the parser for one translation unit. Arguments are
// joined with a NUL separator so that ["-I", "foo"] and ["-Ifoo"] never
// collide by accident of concatenation.
func CompileArgs(argv []string) string {
	h := md5.New()
	for _, a := range argv {
		_, _ = io.WriteString(h, a)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CacheDir returns the on-disk cache directory for a project given the
// configured cache root, matching the layout in the external-interfaces
// section: <cache_root>/<project_fingerprint>/.
func CacheDir(cacheRoot, absProjectPath string) string {
	return filepath.Join(cacheRoot, Project(absProjectPath))
}

// SlashPath normalizes a path to forward slashes for glob/exclusion
// matching, so Windows-style separators never bypass a dependency-root or
// exclusion pattern written with forward slashes.
func SlashPath(path string) string {
	return strings.ReplaceAll(path, string(os.PathSeparator), "/")
}
