package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/memindex"
	"github.com/cxxindex/cxxindex/internal/store"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store, *memindex.Index, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx := memindex.New()
	cfg := config.Default()
	return New(st, idx, cfg, nil), st, idx, dir
}

func seedFile(t *testing.T, st *store.Store, idx *memindex.Index, srcDir string, rec symbols.FileRecord) {
	t.Helper()
	meta := symbols.FileMetadata{Path: rec.File, Hash: "h", CompileArgsHash: "a", SymbolCount: len(rec.Symbols)}
	require.NoError(t, st.UpdateFileSymbols(context.Background(), rec, meta))
	idx.UpsertFile(rec.File, rec)
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSearchClassesFindsByFTSAndAggregatesTemplateFamily(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "widget.h")

	primary := symbols.Symbol{USR: "c:@ST>1#T@Box", Name: "Box", QualifiedName: "Box", Kind: symbols.KindClassTemplate, File: path, Line: 1, StartLine: 1, EndLine: 3, IsProject: true}
	spec := symbols.Symbol{USR: "c:@S@Box>#I", Name: "Box", QualifiedName: "Box<int>", Kind: symbols.KindClass, File: path, Line: 5, StartLine: 5, EndLine: 7, IsProject: true, PrimaryTemplateUSR: primary.USR}

	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{primary, spec}})

	res, err := e.SearchClasses("Box", false, nil)
	require.NoError(t, err)
	assert.Len(t, res.Symbols, 2)
}

func TestSearchClassesSuggestsOnMiss(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "a.h")
	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{
		{USR: "c:@S@Widget", Name: "Widget", QualifiedName: "Widget", Kind: symbols.KindClass, File: path, Line: 1, StartLine: 1, EndLine: 2, IsProject: true},
	}})

	res, err := e.SearchClasses("Widgit", false, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Symbols)
	assert.Contains(t, res.Suggestions, "Widget")
}

func TestGetClassInfoBuildsBaseAndDerivedHierarchy(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "shapes.h")

	base := symbols.Symbol{USR: "c:@S@Shape", Name: "Shape", QualifiedName: "Shape", Kind: symbols.KindClass, File: path, Line: 1, StartLine: 1, EndLine: 2, IsProject: true}
	mid := symbols.Symbol{USR: "c:@S@Circle", Name: "Circle", QualifiedName: "Circle", Kind: symbols.KindClass, File: path, Line: 4, StartLine: 4, EndLine: 6, IsProject: true, BaseClasses: []string{"Shape"}}
	leaf := symbols.Symbol{USR: "c:@S@Wheel", Name: "Wheel", QualifiedName: "Wheel", Kind: symbols.KindClass, File: path, Line: 8, StartLine: 8, EndLine: 10, IsProject: true, BaseClasses: []string{"Circle"}}

	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{base, mid, leaf}})

	info := e.GetClassInfo("Circle")
	require.True(t, info.Found)
	require.Len(t, info.Bases, 1)
	assert.Equal(t, "Shape", info.Bases[0].Name)
	require.Len(t, info.Derived, 1)
	assert.Equal(t, "Wheel", info.Derived[0].Name)
}

func TestGetClassInfoUnknownNameReportsNotFound(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	info := e.GetClassInfo("Nonexistent")
	assert.False(t, info.Found)
}

func TestFindCallersAndGetCallSitesOrderedAndWithContext(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "main.cpp")
	writeLines(t, path, "// line1", "void helper() {}", "void caller() {", "  helper();", "}")

	helper := symbols.Symbol{USR: "c:@F@helper#", Name: "helper", QualifiedName: "helper", Kind: symbols.KindFunction, File: path, Line: 2, StartLine: 2, EndLine: 2, IsProject: true}
	caller := symbols.Symbol{USR: "c:@F@caller#", Name: "caller", QualifiedName: "caller", Kind: symbols.KindFunction, File: path, Line: 3, StartLine: 3, EndLine: 5, IsProject: true}
	site := symbols.CallSite{CallerUSR: caller.USR, CalleeUSR: helper.USR, File: path, Line: 4, Column: 3}

	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{helper, caller}, CallSites: []symbols.CallSite{site}})

	callers := e.FindCallers("helper")
	require.Len(t, callers, 1)
	assert.Equal(t, caller.USR, callers[0].USR)
	assert.Equal(t, 4, callers[0].Line)
	assert.NotEmpty(t, callers[0].Context)

	sites := e.GetCallSites("caller")
	require.Len(t, sites, 1)
	assert.Equal(t, helper.USR, sites[0].USR)
}

func TestGetCallPathFindsShortestChain(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "chain.cpp")

	a := symbols.Symbol{USR: "c:@F@a#", Name: "a", QualifiedName: "a", Kind: symbols.KindFunction, File: path, Line: 1, StartLine: 1, EndLine: 1, IsProject: true}
	b := symbols.Symbol{USR: "c:@F@b#", Name: "b", QualifiedName: "b", Kind: symbols.KindFunction, File: path, Line: 2, StartLine: 2, EndLine: 2, IsProject: true}
	c := symbols.Symbol{USR: "c:@F@c#", Name: "c", QualifiedName: "c", Kind: symbols.KindFunction, File: path, Line: 3, StartLine: 3, EndLine: 3, IsProject: true}

	seedFile(t, st, idx, dir, symbols.FileRecord{
		File:    path,
		Symbols: []symbols.Symbol{a, b, c},
		CallSites: []symbols.CallSite{
			{CallerUSR: a.USR, CalleeUSR: b.USR, File: path, Line: 1, Column: 1},
			{CallerUSR: b.USR, CalleeUSR: c.USR, File: path, Line: 2, Column: 1},
		},
	})

	paths := e.GetCallPath("a", "c", 5)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{a.USR, b.USR, c.USR}, paths[0].USRs)
}

func TestGetCallPathReturnsEmptyWhenUnreachable(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "isolated.cpp")
	a := symbols.Symbol{USR: "c:@F@a#", Name: "a", QualifiedName: "a", Kind: symbols.KindFunction, File: path, Line: 1, StartLine: 1, EndLine: 1, IsProject: true}
	b := symbols.Symbol{USR: "c:@F@b#", Name: "b", QualifiedName: "b", Kind: symbols.KindFunction, File: path, Line: 2, StartLine: 2, EndLine: 2, IsProject: true}
	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{a, b}})

	paths := e.GetCallPath("a", "b", 5)
	assert.Empty(t, paths)
}

func TestFindInFileMatchesRegexAndRejectsInvalidPattern(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "a.cpp")
	sym := symbols.Symbol{USR: "c:@F@doThing#", Name: "doThing", QualifiedName: "doThing", Kind: symbols.KindFunction, File: path, Line: 1, StartLine: 1, EndLine: 1, IsProject: true}
	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{sym}})

	results, err := e.FindInFile(path, "^do.*")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = e.FindInFile(path, "(")
	assert.Error(t, err)
}

func TestGetStatsCountsSymbolsByKind(t *testing.T) {
	e, st, idx, dir := newTestEngine(t)
	path := filepath.Join(dir, "a.cpp")
	seedFile(t, st, idx, dir, symbols.FileRecord{File: path, Symbols: []symbols.Symbol{
		{USR: "c:@F@f#", Name: "f", QualifiedName: "f", Kind: symbols.KindFunction, File: path, Line: 1, StartLine: 1, EndLine: 1, IsProject: true},
		{USR: "c:@S@W", Name: "W", QualifiedName: "W", Kind: symbols.KindClass, File: path, Line: 2, StartLine: 2, EndLine: 3, IsProject: true},
	}})

	stats, err := e.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSymbols)
	assert.Equal(t, 1, stats.SymbolsByKind[string(symbols.KindFunction)])
	assert.Equal(t, 1, stats.SymbolsByKind[string(symbols.KindClass)])
}
