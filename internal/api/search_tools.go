package api

import (
	"encoding/json"

	"github.com/cxxindex/cxxindex/internal/query"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// SearchClassesParams are the search_classes arguments.
type SearchClassesParams struct {
	Pattern     string         `json:"pattern"`
	ProjectOnly bool           `json:"project_only,omitempty"`
	KindFilter  []symbols.Kind `json:"kind_filter,omitempty"`
}

func handleSearchClasses(s *Server, raw json.RawMessage) (any, error) {
	var p SearchClassesParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.SearchClasses(p.Pattern, p.ProjectOnly, p.KindFilter)
}

// SearchFunctionsParams are the search_functions arguments.
type SearchFunctionsParams struct {
	Pattern     string `json:"pattern"`
	ClassName   string `json:"class_name,omitempty"`
	ParamType   string `json:"param_type,omitempty"`
	ProjectOnly bool   `json:"project_only,omitempty"`
}

func handleSearchFunctions(s *Server, raw json.RawMessage) (any, error) {
	var p SearchFunctionsParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.SearchFunctions(p.Pattern, p.ClassName, p.ParamType, p.ProjectOnly)
}

// SearchSymbolsParams are the search_symbols arguments.
type SearchSymbolsParams struct {
	Pattern     string         `json:"pattern"`
	KindFilter  []symbols.Kind `json:"kind_filter,omitempty"`
	ProjectOnly bool           `json:"project_only,omitempty"`
}

func handleSearchSymbols(s *Server, raw json.RawMessage) (any, error) {
	var p SearchSymbolsParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.SearchSymbols(p.Pattern, p.KindFilter, p.ProjectOnly)
}

// GetClassInfoParams are the get_class_info arguments.
type GetClassInfoParams struct {
	Name string `json:"name"`
}

func handleGetClassInfo(s *Server, raw json.RawMessage) (any, error) {
	var p GetClassInfoParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	info := eng.GetClassInfo(p.Name)
	return info, nil
}

// GetFunctionInfoParams are the get_function_info arguments.
type GetFunctionInfoParams struct {
	Name string `json:"name"`
}

func handleGetFunctionInfo(s *Server, raw json.RawMessage) (any, error) {
	var p GetFunctionInfoParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.GetFunctionInfo(p.Name), nil
}

// FindCallersParams are the find_callers arguments.
type FindCallersParams struct {
	Function string `json:"function"`
}

func handleFindCallers(s *Server, raw json.RawMessage) (any, error) {
	var p FindCallersParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.FindCallers(p.Function), nil
}

// GetCallSitesParams are the get_call_sites arguments.
type GetCallSitesParams struct {
	Caller string `json:"caller"`
}

func handleGetCallSites(s *Server, raw json.RawMessage) (any, error) {
	var p GetCallSitesParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.GetCallSites(p.Caller), nil
}

// GetCallPathParams are the get_call_path arguments. MaxDepth of 0 means
// a zero-edge search (a path exists only if From == To); omitting it
// entirely falls back to the engine's configured max traversal depth.
type GetCallPathParams struct {
	From     string `json:"from"`
	To       string `json:"to"`
	MaxDepth *int   `json:"max_depth,omitempty"`
}

func handleGetCallPath(s *Server, raw json.RawMessage) (any, error) {
	var p GetCallPathParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	depth := -1
	if p.MaxDepth != nil {
		depth = *p.MaxDepth
	}
	return eng.GetCallPath(p.From, p.To, depth), nil
}

// GetClassHierarchyParams are the get_class_hierarchy arguments.
type GetClassHierarchyParams struct {
	Name string `json:"name"`
}

// GetClassHierarchyResult is the get_class_hierarchy response.
type GetClassHierarchyResult struct {
	Bases   []query.HierarchyNode `json:"bases"`
	Derived []query.HierarchyNode `json:"derived"`
	Found   bool                  `json:"found"`
}

func handleGetClassHierarchy(s *Server, raw json.RawMessage) (any, error) {
	var p GetClassHierarchyParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	bases, derived, found := eng.GetClassHierarchy(p.Name)
	return GetClassHierarchyResult{Bases: bases, Derived: derived, Found: found}, nil
}

// FindInFileParams are the find_in_file arguments.
type FindInFileParams struct {
	File    string `json:"file"`
	Pattern string `json:"pattern"`
}

func handleFindInFile(s *Server, raw json.RawMessage) (any, error) {
	var p FindInFileParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.FindInFile(p.File, p.Pattern)
}

// GetFilesContainingSymbolParams are the get_files_containing_symbol
// arguments.
type GetFilesContainingSymbolParams struct {
	Name        string         `json:"name"`
	KindFilter  []symbols.Kind `json:"kind_filter,omitempty"`
	ProjectOnly bool           `json:"project_only,omitempty"`
}

func handleGetFilesContainingSymbol(s *Server, raw json.RawMessage) (any, error) {
	var p GetFilesContainingSymbolParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.GetFilesContainingSymbol(p.Name, p.KindFilter, p.ProjectOnly), nil
}

func handleGetStats(s *Server, raw json.RawMessage) (any, error) {
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.GetStats()
}

func handleGetCallStatistics(s *Server, raw json.RawMessage) (any, error) {
	eng, err := s.requireEngine()
	if err != nil {
		return nil, err
	}
	return eng.GetCallStatistics()
}

// GetCrossReferencesParams are the get_cross_references arguments.
type GetCrossReferencesParams struct {
	Name string `json:"name"`
}

// GetCrossReferencesResult is always an empty list plus a deprecation
// note: the cross-reference feature is not part of this core.
type GetCrossReferencesResult struct {
	References []symbols.Symbol `json:"references"`
	Deprecated string            `json:"deprecated"`
}

func handleGetCrossReferences(s *Server, raw json.RawMessage) (any, error) {
	if _, err := s.requireEngine(); err != nil {
		return nil, err
	}
	return GetCrossReferencesResult{
		References: nil,
		Deprecated: "get_cross_references is not part of this core; use find_callers/get_call_sites for call-graph cross-references.",
	}, nil
}
