package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/fingerprint"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

func writeSrc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestCoordinator(t *testing.T, projectRoot string) *Coordinator {
	t.Helper()
	cfg := config.Default()
	cfg.CacheRoot = t.TempDir()
	cfg.WorkerCount = 2
	cfg.WorkerMaxTasksPerChild = 5

	c := New()
	require.NoError(t, c.SetProject(projectRoot, cfg))
	return c
}

func TestSetProjectStartsUninitializedWithEmptyCache(t *testing.T) {
	dir := t.TempDir()
	writeSrc(t, dir, "a.cpp", "void f() {}\n")

	c := newTestCoordinator(t, dir)
	assert.Equal(t, symbols.StateUninitialized, c.State())
	assert.NotNil(t, c.Store())
	assert.NotNil(t, c.Index())
}

func TestSetProjectReportsReadyFromCacheWhenSymbolsAlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	writeSrc(t, dir, "a.cpp", "void f() {}\n")

	cfg := config.Default()
	cfg.CacheRoot = t.TempDir()

	c := New()
	require.NoError(t, c.SetProject(dir, cfg))

	rec := symbols.FileRecord{
		File: filepath.Join(dir, "a.cpp"),
		Symbols: []symbols.Symbol{
			{USR: "c:@F@f#", Name: "f", QualifiedName: "f", Kind: symbols.KindFunction, File: filepath.Join(dir, "a.cpp"), Line: 1, StartLine: 1, EndLine: 1, IsProject: true},
		},
	}
	meta := symbols.FileMetadata{Path: rec.File, Hash: "deadbeef", CompileArgsHash: "beefdead", SymbolCount: 1}
	require.NoError(t, c.Store().UpdateFileSymbols(context.Background(), rec, meta))
	c.Index().UpsertFile(rec.File, rec)

	// Re-opening the same project root should now see the cache as populated.
	c2 := New()
	require.NoError(t, c2.SetProject(dir, cfg))
	assert.Equal(t, symbols.StateReadyFromCache, c2.State())
	assert.Equal(t, 1, c2.Index().SymbolCount())
}

func TestIndexAllSkipsUnchangedFilesOnSecondRun(t *testing.T) {
	dir := t.TempDir()
	writeSrc(t, dir, "a.cpp", "void f() {}\n")

	cfg := config.Default()
	cfg.CacheRoot = t.TempDir()
	cfg.WorkerCount = 2
	cfg.WorkerMaxTasksPerChild = 5

	c := New()
	require.NoError(t, c.SetProject(dir, cfg))

	// Seed the cache directly so the scanned file already matches, proving
	// the hash comparison short-circuits dispatch without invoking the
	// (unavailable in this build) parser pool.
	path := filepath.Join(dir, "a.cpp")
	hash, err := fingerprint.FileContent(path)
	require.NoError(t, err)
	argsHash := fingerprint.CompileArgs(cfg.FlattenFallbackArgs())

	meta := symbols.FileMetadata{Path: path, Hash: hash, CompileArgsHash: argsHash, SymbolCount: 0}
	require.NoError(t, c.Store().UpdateFileSymbols(context.Background(), symbols.FileRecord{File: path}, meta))

	err = c.IndexAll(context.Background(), false)
	require.NoError(t, err)

	stats := c.CallStatistics()
	assert.Equal(t, float64(1), stats.CacheHits)
	assert.Equal(t, float64(0), stats.IndexedFiles)
	assert.Equal(t, symbols.StateIndexed, c.State())
}

func TestCancelStopsBeforeReportingIndexed(t *testing.T) {
	dir := t.TempDir()
	writeSrc(t, dir, "a.cpp", "void f() {}\n")

	c := newTestCoordinator(t, dir)
	c.Cancel()

	err := c.IndexAll(context.Background(), false)
	// The flag set before the run is observed before any job is
	// dispatched, so the run ends cancelled instead of flipping the state
	// to indexed.
	require.Error(t, err)
	assert.Equal(t, symbols.StateReadyFromCache, c.State())
}

func TestRefreshPrunesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeSrc(t, dir, "a.cpp", "void f() {}\n")

	c := newTestCoordinator(t, dir)
	rec := symbols.FileRecord{
		File:    path,
		Symbols: []symbols.Symbol{{USR: "c:@F@f#", Name: "f", QualifiedName: "f", Kind: symbols.KindFunction, File: path, Line: 1, StartLine: 1, EndLine: 1, IsProject: true}},
	}
	require.NoError(t, c.Store().UpdateFileSymbols(context.Background(), rec, symbols.FileMetadata{Path: path, Hash: "x", CompileArgsHash: "y", SymbolCount: 1}))
	c.Index().UpsertFile(path, rec)

	require.NoError(t, os.Remove(path))

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 0, c.Index().SymbolCount())

	_, ok, err := c.Store().FileMetadataFor(path)
	require.NoError(t, err)
	assert.False(t, ok)
}
