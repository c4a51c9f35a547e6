package query

import (
	"sort"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

// FindInFile regex-scans every symbol recorded in file (the file_index a
// source document maps to) and returns those whose name or qualified name
// matches pattern. Type aliases recorded in the file are not searched. An
// invalid pattern is a QueryError.
func (e *Engine) FindInFile(file, pattern string) ([]symbols.Symbol, error) {
	re, err := compileRegex(pattern)
	if err != nil {
		return nil, err
	}

	var out []symbols.Symbol
	for _, s := range e.index.SymbolsInFile(file) {
		if re.MatchString(s.Name) || re.MatchString(s.QualifiedName) {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetFilesContainingSymbol returns the deduplicated, sorted union of: the
// defining file, the declaring header (if any), and every file containing
// a call site whose callee matches name.
func (e *Engine) GetFilesContainingSymbol(name string, kindFilter []symbols.Kind, projectOnly bool) []string {
	var matches []symbols.Symbol
	for _, k := range allKindsOrFilter(kindFilter) {
		for _, s := range e.index.SymbolsByKind(k) {
			if s.Name != name && s.QualifiedName != name {
				continue
			}
			if projectOnly && !s.IsProject {
				continue
			}
			matches = append(matches, s)
		}
	}

	files := map[string]struct{}{}
	for _, s := range matches {
		if s.File != "" {
			files[s.File] = struct{}{}
		}
		if s.HeaderFile != "" {
			files[s.HeaderFile] = struct{}{}
		}
		for _, callerUSR := range e.index.Callers(s.USR) {
			for _, site := range callSitesBetween(e, callerUSR, s.USR) {
				files[site.File] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func callSitesBetween(e *Engine, callerUSR, calleeUSR string) []symbols.CallSite {
	sites, err := e.store.CallSitesByCaller(callerUSR)
	if err != nil {
		return nil
	}
	var out []symbols.CallSite
	for _, s := range sites {
		if s.CalleeUSR == calleeUSR {
			out = append(out, s)
		}
	}
	return out
}

func allKindsOrFilter(kindFilter []symbols.Kind) []symbols.Kind {
	if len(kindFilter) > 0 {
		return kindFilter
	}
	return append(append([]symbols.Kind(nil), classLikeKinds...), functionLikeKinds...)
}
