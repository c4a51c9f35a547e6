package memindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

func widgetRecord() symbols.FileRecord {
	return symbols.FileRecord{
		File: "/proj/widget.cpp",
		Symbols: []symbols.Symbol{
			{USR: "c:@S@Widget", Name: "Widget", QualifiedName: "Widget", Kind: symbols.KindClass, File: "/proj/widget.cpp", Line: 1},
			{USR: "c:@F@doSomething#", Name: "doSomething", QualifiedName: "doSomething", Kind: symbols.KindFunction, File: "/proj/widget.cpp", Line: 10},
		},
		Aliases: []symbols.TypeAlias{
			{AliasName: "WidgetPtr", QualifiedName: "WidgetPtr", File: "/proj/widget.cpp", Line: 21},
		},
		CallSites: []symbols.CallSite{
			{CallerUSR: "c:@F@main#", CalleeUSR: "c:@F@doSomething#", File: "/proj/widget.cpp", Line: 30},
		},
	}
}

func TestUpsertFileAndLookups(t *testing.T) {
	idx := New()
	idx.UpsertFile("/proj/widget.cpp", widgetRecord())

	sym, ok := idx.SymbolByUSR("c:@S@Widget")
	require.True(t, ok)
	assert.Equal(t, "Widget", sym.Name)

	byName := idx.SymbolsByName("doSomething")
	require.Len(t, byName, 1)

	byKind := idx.SymbolsByKind(symbols.KindClass)
	require.Len(t, byKind, 1)
	assert.Equal(t, "Widget", byKind[0].Name)

	inFile := idx.SymbolsInFile("/proj/widget.cpp")
	assert.Len(t, inFile, 2)

	aliases := idx.AliasesInFile("/proj/widget.cpp")
	require.Len(t, aliases, 1)
	assert.Equal(t, "WidgetPtr", aliases[0].AliasName)

	callers := idx.Callers("c:@F@doSomething#")
	require.Len(t, callers, 1)
	assert.Equal(t, "c:@F@main#", callers[0])

	callees := idx.Callees("c:@F@main#")
	require.Len(t, callees, 1)
	assert.Equal(t, "c:@F@doSomething#", callees[0])
}

func TestUpsertFileReplacesPreviousContents(t *testing.T) {
	idx := New()
	idx.UpsertFile("/proj/widget.cpp", widgetRecord())

	rec2 := widgetRecord()
	rec2.Symbols = rec2.Symbols[:1] // doSomething removed in re-parse
	rec2.CallSites = nil
	idx.UpsertFile("/proj/widget.cpp", rec2)

	_, ok := idx.SymbolByUSR("c:@F@doSomething#")
	assert.False(t, ok, "stale symbol from previous version of the file should be gone")

	assert.Empty(t, idx.Callers("c:@F@doSomething#"))
}

func TestRemoveFileClearsEverything(t *testing.T) {
	idx := New()
	idx.UpsertFile("/proj/widget.cpp", widgetRecord())
	idx.RemoveFile("/proj/widget.cpp")

	assert.Equal(t, 0, idx.SymbolCount())
	assert.Empty(t, idx.SymbolsInFile("/proj/widget.cpp"))
	assert.Empty(t, idx.AliasesInFile("/proj/widget.cpp"))
	assert.Empty(t, idx.Callers("c:@F@doSomething#"))
}

func TestLoadAllReplacesWholeIndex(t *testing.T) {
	idx := New()
	idx.UpsertFile("/proj/old.cpp", symbols.FileRecord{
		File:    "/proj/old.cpp",
		Symbols: []symbols.Symbol{{USR: "c:@F@old#", Name: "old", File: "/proj/old.cpp"}},
	})

	rec := widgetRecord()
	idx.LoadAll(rec.Symbols, rec.Aliases, rec.CallSites)

	_, ok := idx.SymbolByUSR("c:@F@old#")
	assert.False(t, ok)
	_, ok = idx.SymbolByUSR("c:@S@Widget")
	assert.True(t, ok)
}

func TestAllFilesSortedAndDeduped(t *testing.T) {
	idx := New()
	idx.UpsertFile("/proj/b.cpp", symbols.FileRecord{File: "/proj/b.cpp", Symbols: []symbols.Symbol{{USR: "u1", File: "/proj/b.cpp"}}})
	idx.UpsertFile("/proj/a.cpp", symbols.FileRecord{File: "/proj/a.cpp", Symbols: []symbols.Symbol{{USR: "u2", File: "/proj/a.cpp"}}})

	assert.Equal(t, []string{"/proj/a.cpp", "/proj/b.cpp"}, idx.AllFiles())
}
