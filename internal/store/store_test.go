package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

func sampleRecord(file string) (symbols.FileRecord, symbols.FileMetadata) {
	rec := symbols.FileRecord{
		File: file,
		Symbols: []symbols.Symbol{
			{
				USR: "c:@F@doSomething#", Name: "doSomething", QualifiedName: "doSomething",
				Kind: symbols.KindFunction, File: file, Line: 10, StartLine: 10, EndLine: 12,
				IsProject: true,
			},
			{
				USR: "c:@S@Widget", Name: "Widget", QualifiedName: "Widget",
				Kind: symbols.KindClass, File: file, Line: 1, StartLine: 1, EndLine: 20,
				IsProject: true, BaseClasses: []string{"Base"},
			},
		},
		Aliases: []symbols.TypeAlias{
			{AliasName: "WidgetPtr", QualifiedName: "WidgetPtr", TargetType: "Widget*", CanonicalType: "Widget*", AliasKind: "using", File: file, Line: 21},
		},
		CallSites: []symbols.CallSite{
			{CallerUSR: "c:@F@main#", CalleeUSR: "c:@F@doSomething#", File: file, Line: 30, Column: 3},
		},
	}
	meta := symbols.FileMetadata{Path: file, Hash: "abc123", CompileArgsHash: "def456", IndexedAt: 1000, SymbolCount: len(rec.Symbols)}
	return rec, meta
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	msg, err := s.CheckIntegrity()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg)
}

func TestSaveAndLoadSymbolsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")

	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	byUSR, ok, err := s.LoadSymbolByUSR("c:@S@Widget")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget", byUSR.Name)
	assert.Equal(t, []string{"Base"}, byUSR.BaseClasses)

	byName, err := s.LoadSymbolsByName("doSomething")
	require.NoError(t, err)
	require.Len(t, byName, 1)

	inFile, err := s.LoadSymbolsInFile("/proj/widget.cpp")
	require.NoError(t, err)
	assert.Len(t, inFile, 2)

	gotMeta, ok, err := s.FileMetadataFor("/proj/widget.cpp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", gotMeta.Hash)

	aliases, err := s.AllTypeAliases()
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "WidgetPtr", aliases[0].AliasName)

	callers, err := s.CallSitesByCallee("c:@F@doSomething#")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "c:@F@main#", callers[0].CallerUSR)
}

func TestSaveSymbolsBatchReplacesPreviousRowsForFile(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	rec.Symbols = rec.Symbols[:1] // Widget class removed in the new parse
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	_, ok, err := s.LoadSymbolByUSR("c:@S@Widget")
	require.NoError(t, err)
	assert.False(t, ok, "stale symbol row from previous parse should be gone")
}

func TestSearchByPatternFTSAndRegex(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	prefixHits, err := s.SearchByPattern("Widget", nil, 10)
	require.NoError(t, err)
	require.Len(t, prefixHits, 1)
	assert.Equal(t, "Widget", prefixHits[0].Name)

	regexHits, err := s.SearchByPattern("^do.*thing$", nil, 10)
	require.NoError(t, err)
	require.Len(t, regexHits, 1)
	assert.Equal(t, "doSomething", regexHits[0].Name)

	kindFiltered, err := s.SearchByPattern("Widget", []symbols.Kind{symbols.KindFunction}, 10)
	require.NoError(t, err)
	assert.Empty(t, kindFiltered)
}

func TestHeaderTrackerRoundTrip(t *testing.T) {
	s := openTestStore(t)
	rec := symbols.HeaderRecord{HeaderPath: "/proj/widget.h", ProcessedBy: "/proj/widget.cpp", FileHash: "h1", CompileCommandsHash: "cc1", ProcessedAt: 42}
	require.NoError(t, s.RecordHeaderProcessed(context.Background(), rec))

	got, ok, err := s.HeaderRecordFor("/proj/widget.h", "cc1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/proj/widget.cpp", got.ProcessedBy)

	_, ok, err = s.HeaderRecordFor("/proj/widget.h", "different-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCacheStatsAndHealthStatus(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	stats, err := s.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SymbolCount)
	assert.Equal(t, 1, stats.AliasCount)
	assert.Equal(t, 1, stats.CallSiteCount)
	assert.NotEmpty(t, stats.HumanSize)

	health, err := s.GetHealthStatus()
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.Equal(t, CurrentSchemaVersion, health.SchemaVersion)
}

func TestAutoMaintenanceRunsWithoutError(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))
	require.NoError(t, s.AutoMaintenance(1<<30)) // threshold far above actual size: no vacuum
}

func TestDeleteFileRemovesAllRows(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	require.NoError(t, s.DeleteFile(context.Background(), "/proj/widget.cpp"))

	inFile, err := s.LoadSymbolsInFile("/proj/widget.cpp")
	require.NoError(t, err)
	assert.Empty(t, inFile)

	_, ok, err := s.FileMetadataFor("/proj/widget.cpp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheMetadataRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SetMetadata("indexed_file_count", "42"))

	val, ok, err := s.GetMetadata("indexed_file_count")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "42", val)

	_, ok, err = s.GetMetadata("missing_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAliasCanonicalLookups(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	rec.Aliases[0].CanonicalType = "Widget*"
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	names, err := s.GetAliasesForCanonical("Widget*")
	require.NoError(t, err)
	require.Contains(t, names, "WidgetPtr")

	canonical, ok, err := s.GetCanonicalForAlias("WidgetPtr")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget*", canonical)
}

func TestBackupCreatesFile(t *testing.T) {
	s := openTestStore(t)
	rec, meta := sampleRecord("/proj/widget.cpp")
	require.NoError(t, s.SaveSymbolsBatch(context.Background(), rec, meta))

	dest := t.TempDir()
	path, err := s.Backup(dest)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
