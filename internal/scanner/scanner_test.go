package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/config"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// x\n"), 0o644))
}

func TestScanClassifiesAndExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "main.cpp"))
	writeFile(t, filepath.Join(dir, "src", "main.h"))
	writeFile(t, filepath.Join(dir, "vcpkg_installed", "x64-linux", "include", "foo.h"))
	writeFile(t, filepath.Join(dir, "build", "generated.cpp"))
	writeFile(t, filepath.Join(dir, "README.md"))

	cfg := config.Default()
	s := New(dir, ".cxxindex-cache", cfg)
	files, err := s.Scan()
	require.NoError(t, err)

	byPath := map[string]File{}
	for _, f := range files {
		byPath[f.Path] = f
	}

	mainCpp := filepath.Join(dir, "src", "main.cpp")
	vendored := filepath.Join(dir, "vcpkg_installed", "x64-linux", "include", "foo.h")
	generated := filepath.Join(dir, "build", "generated.cpp")

	require.Contains(t, byPath, mainCpp)
	assert.True(t, byPath[mainCpp].IsProject)

	require.Contains(t, byPath, vendored)
	assert.False(t, byPath[vendored].IsProject)

	assert.NotContains(t, byPath, generated, "build/ is excluded")
}

func TestScanIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.cpp"))
	writeFile(t, filepath.Join(dir, "a.cpp"))
	writeFile(t, filepath.Join(dir, "c.cpp"))

	s := New(dir, "", config.Default())
	first, err := s.Scan()
	require.NoError(t, err)
	second, err := s.Scan()
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Path, second[i].Path)
	}
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].Path, first[i].Path)
	}
}
