// Package memindex holds the in-memory indexes rebuilt from (or kept in
// sync with) the Store: lookup maps by name, kind, file, and USR, plus the
// call graph. Query Engine operations read these maps directly instead of
// hitting SQLite on every call, and the coordinator calls Upsert/Remove as
// each file finishes (re-)indexing so the maps never drift from the cache.
package memindex

import (
	"sort"
	"sync"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

// Index is the coordinator's live view of every symbol, alias, and call
// site currently known, indexed for O(1) lookup by the dimensions the
// Query Engine needs.
type Index struct {
	mu sync.RWMutex

	byUSR  map[string]symbols.Symbol
	byName map[string][]string // name -> USRs, insertion order per name
	byKind map[symbols.Kind][]string
	byFile map[string][]string

	aliasesByFile map[string][]symbols.TypeAlias

	// callers[usr] = set of USRs that call usr; callees[usr] = set of USRs
	// usr calls. Kept symmetric on every Upsert/Remove.
	callers map[string]map[string]struct{}
	callees map[string]map[string]struct{}
	callSitesByFile map[string][]symbols.CallSite
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byUSR:           map[string]symbols.Symbol{},
		byName:          map[string][]string{},
		byKind:          map[symbols.Kind][]string{},
		byFile:          map[string][]string{},
		aliasesByFile:   map[string][]symbols.TypeAlias{},
		callers:         map[string]map[string]struct{}{},
		callees:         map[string]map[string]struct{}{},
		callSitesByFile: map[string][]symbols.CallSite{},
	}
}

// LoadAll replaces the index's contents wholesale — the path used when the
// coordinator loads from an existing cache at startup.
func (idx *Index) LoadAll(allSymbols []symbols.Symbol, allAliases []symbols.TypeAlias, allCallSites []symbols.CallSite) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.byUSR = make(map[string]symbols.Symbol, len(allSymbols))
	idx.byName = map[string][]string{}
	idx.byKind = map[symbols.Kind][]string{}
	idx.byFile = map[string][]string{}
	for _, sym := range allSymbols {
		idx.insertSymbolLocked(sym)
	}

	idx.aliasesByFile = map[string][]symbols.TypeAlias{}
	for _, a := range allAliases {
		idx.aliasesByFile[a.File] = append(idx.aliasesByFile[a.File], a)
	}

	idx.callers = map[string]map[string]struct{}{}
	idx.callees = map[string]map[string]struct{}{}
	idx.callSitesByFile = map[string][]symbols.CallSite{}
	for _, c := range allCallSites {
		idx.insertCallSiteLocked(c)
	}
}

// UpsertFile replaces everything the index knows about file with rec,
// mirroring the Store's whole-file-replace write policy so the two never
// disagree about what a re-indexed file contains.
func (idx *Index) UpsertFile(file string, rec symbols.FileRecord) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFileLocked(file)

	for _, sym := range rec.Symbols {
		idx.insertSymbolLocked(sym)
	}
	idx.aliasesByFile[file] = append([]symbols.TypeAlias(nil), rec.Aliases...)
	for _, c := range rec.CallSites {
		idx.insertCallSiteLocked(c)
	}
}

// RemoveFile deletes every symbol, alias, and call site recorded against
// file — used when a file is deleted from disk between refreshes.
func (idx *Index) RemoveFile(file string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(file)
}

func (idx *Index) removeFileLocked(file string) {
	for _, usr := range idx.byFile[file] {
		idx.removeSymbolLocked(usr)
	}
	delete(idx.byFile, file)
	delete(idx.aliasesByFile, file)

	for _, c := range idx.callSitesByFile[file] {
		idx.unlinkCallSiteLocked(c)
	}
	delete(idx.callSitesByFile, file)
}

func (idx *Index) insertSymbolLocked(sym symbols.Symbol) {
	idx.byUSR[sym.USR] = sym
	idx.byName[sym.Name] = appendUnique(idx.byName[sym.Name], sym.USR)
	idx.byKind[sym.Kind] = appendUnique(idx.byKind[sym.Kind], sym.USR)
	idx.byFile[sym.File] = appendUnique(idx.byFile[sym.File], sym.USR)
}

func (idx *Index) removeSymbolLocked(usr string) {
	sym, ok := idx.byUSR[usr]
	if !ok {
		return
	}
	delete(idx.byUSR, usr)
	idx.byName[sym.Name] = removeValue(idx.byName[sym.Name], usr)
	idx.byKind[sym.Kind] = removeValue(idx.byKind[sym.Kind], usr)
}

func (idx *Index) insertCallSiteLocked(c symbols.CallSite) {
	if idx.callees[c.CallerUSR] == nil {
		idx.callees[c.CallerUSR] = map[string]struct{}{}
	}
	idx.callees[c.CallerUSR][c.CalleeUSR] = struct{}{}

	if idx.callers[c.CalleeUSR] == nil {
		idx.callers[c.CalleeUSR] = map[string]struct{}{}
	}
	idx.callers[c.CalleeUSR][c.CallerUSR] = struct{}{}

	idx.callSitesByFile[c.File] = append(idx.callSitesByFile[c.File], c)
}

func (idx *Index) unlinkCallSiteLocked(c symbols.CallSite) {
	if set, ok := idx.callees[c.CallerUSR]; ok {
		delete(set, c.CalleeUSR)
		if len(set) == 0 {
			delete(idx.callees, c.CallerUSR)
		}
	}
	if set, ok := idx.callers[c.CalleeUSR]; ok {
		delete(set, c.CallerUSR)
		if len(set) == 0 {
			delete(idx.callers, c.CalleeUSR)
		}
	}
}

// SymbolByUSR returns the symbol for usr, if known.
func (idx *Index) SymbolByUSR(usr string) (symbols.Symbol, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	sym, ok := idx.byUSR[usr]
	return sym, ok
}

// SymbolsByName returns every symbol with the given unqualified name.
func (idx *Index) SymbolsByName(name string) []symbols.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.resolveLocked(idx.byName[name])
}

// SymbolsByKind returns every symbol of the given kind, sorted by
// qualified name.
func (idx *Index) SymbolsByKind(kind symbols.Kind) []symbols.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := idx.resolveLocked(idx.byKind[kind])
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}

// SymbolsInFile returns every symbol recorded against path.
func (idx *Index) SymbolsInFile(path string) []symbols.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := idx.resolveLocked(idx.byFile[path])
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// AliasesInFile returns the `using`/`typedef` declarations recorded
// against path.
func (idx *Index) AliasesInFile(path string) []symbols.TypeAlias {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]symbols.TypeAlias(nil), idx.aliasesByFile[path]...)
}

// Callers returns the USRs of every symbol that directly calls usr.
func (idx *Index) Callers(usr string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return setToSortedSlice(idx.callers[usr])
}

// Callees returns the USRs of every symbol usr directly calls.
func (idx *Index) Callees(usr string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return setToSortedSlice(idx.callees[usr])
}

// AllFiles returns every file path the index currently has symbols for.
func (idx *Index) AllFiles() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.byFile))
	for f := range idx.byFile {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// SymbolCount returns the total number of indexed symbols.
func (idx *Index) SymbolCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byUSR)
}

func (idx *Index) resolveLocked(usrs []string) []symbols.Symbol {
	out := make([]symbols.Symbol, 0, len(usrs))
	for _, usr := range usrs {
		if sym, ok := idx.byUSR[usr]; ok {
			out = append(out, sym)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	for i, existing := range list {
		if existing == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func setToSortedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
