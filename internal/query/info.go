package query

import (
	"regexp"
	"sort"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

// ClassInfo is the get_class_info response: primary location plus the
// recursive base/derived hierarchy and the class's own methods.
type ClassInfo struct {
	Symbol  symbols.Symbol   `json:"symbol"`
	Bases   []HierarchyNode  `json:"bases"`
	Derived []HierarchyNode  `json:"derived"`
	Methods []symbols.Symbol `json:"methods"`
	Found   bool             `json:"found"`
}

// HierarchyNode is one entry of a class hierarchy tree.
type HierarchyNode struct {
	Name     string          `json:"name"`
	Symbol   *symbols.Symbol `json:"symbol,omitempty"`
	Children []HierarchyNode `json:"children,omitempty"`
}

// GetClassInfo resolves name to a class-like symbol and builds its
// recursive base/derived hierarchy and method list. An unknown name
// returns Found=false rather than an error, per the spec's "unknown
// symbol returns an empty result set, not an error" rule.
func (e *Engine) GetClassInfo(name string) ClassInfo {
	sym, ok := e.resolveClassByName(name)
	if !ok {
		return ClassInfo{Found: false}
	}

	visited := map[string]struct{}{sym.QualifiedName: {}}
	return ClassInfo{
		Symbol:  sym,
		Bases:   e.baseHierarchy(sym, visited, 0),
		Derived: e.derivedHierarchy(sym, map[string]struct{}{sym.QualifiedName: {}}, 0),
		Methods: symbolList(e.index.SymbolsByKind(symbols.KindMethod)).filterParent(sym.QualifiedName),
		Found:   true,
	}
}

func (e *Engine) resolveClassByName(name string) (symbols.Symbol, bool) {
	for _, k := range classLikeKinds {
		for _, s := range e.index.SymbolsByKind(k) {
			if s.Name == name || s.QualifiedName == name {
				return s, true
			}
		}
	}
	return symbols.Symbol{}, false
}

// baseHierarchy walks Symbol.BaseClasses (matched by name, since base
// specifiers are recorded as text) recursively, stopping at maxDepth or a
// name already on the current path.
func (e *Engine) baseHierarchy(sym symbols.Symbol, visited map[string]struct{}, depth int) []HierarchyNode {
	if depth >= e.maxDepth() {
		return nil
	}
	bases := append([]string(nil), sym.BaseClasses...)
	sort.Strings(bases)

	var nodes []HierarchyNode
	for _, baseName := range bases {
		if _, seen := visited[baseName]; seen {
			nodes = append(nodes, HierarchyNode{Name: baseName})
			continue
		}
		baseSym, ok := e.resolveClassByName(baseName)
		if !ok {
			nodes = append(nodes, HierarchyNode{Name: baseName})
			continue
		}
		nextVisited := cloneVisited(visited, baseSym.QualifiedName)
		nodes = append(nodes, HierarchyNode{
			Name:     baseName,
			Symbol:   &baseSym,
			Children: e.baseHierarchy(baseSym, nextVisited, depth+1),
		})
	}
	return nodes
}

// derivedHierarchy is the inverse: for each known class-like symbol, check
// whether it lists sym's name among its base classes.
func (e *Engine) derivedHierarchy(sym symbols.Symbol, visited map[string]struct{}, depth int) []HierarchyNode {
	if depth >= e.maxDepth() {
		return nil
	}

	var directDerived []symbols.Symbol
	for _, k := range classLikeKinds {
		for _, cand := range e.index.SymbolsByKind(k) {
			if listContains(cand.BaseClasses, sym.Name) || listContains(cand.BaseClasses, sym.QualifiedName) {
				directDerived = append(directDerived, cand)
			}
		}
	}
	sort.Slice(directDerived, func(i, j int) bool { return directDerived[i].QualifiedName < directDerived[j].QualifiedName })

	var nodes []HierarchyNode
	for _, d := range directDerived {
		if _, seen := visited[d.QualifiedName]; seen {
			nodes = append(nodes, HierarchyNode{Name: d.Name})
			continue
		}
		nextVisited := cloneVisited(visited, d.QualifiedName)
		dCopy := d
		nodes = append(nodes, HierarchyNode{
			Name:     d.Name,
			Symbol:   &dCopy,
			Children: e.derivedHierarchy(d, nextVisited, depth+1),
		})
	}
	return nodes
}

func cloneVisited(in map[string]struct{}, add string) map[string]struct{} {
	out := make(map[string]struct{}, len(in)+1)
	for k := range in {
		out[k] = struct{}{}
	}
	out[add] = struct{}{}
	return out
}

func listContains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

type symbolList []symbols.Symbol

func (l symbolList) filterParent(parentClass string) []symbols.Symbol {
	var out []symbols.Symbol
	for _, s := range l {
		if s.ParentClass == parentClass {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}

// FunctionInfo is the get_function_info response: every overload sharing
// name, each carrying its own signature/location/template metadata and
// the canonical form of its parameter types when alias expansion applies.
type FunctionInfo struct {
	Overloads []FunctionOverload `json:"overloads"`
	Found     bool               `json:"found"`
}

// FunctionOverload is one entry of FunctionInfo.Overloads.
type FunctionOverload struct {
	Symbol              symbols.Symbol `json:"symbol"`
	ParamTypesCanonical []string       `json:"paramTypesCanonical,omitempty"`
}

// GetFunctionInfo resolves every function/method/function-template
// overload sharing name.
func (e *Engine) GetFunctionInfo(name string) FunctionInfo {
	var overloads []symbols.Symbol
	for _, k := range functionLikeKinds {
		for _, s := range e.index.SymbolsByKind(k) {
			if s.Name == name {
				overloads = append(overloads, s)
			}
		}
	}
	if len(overloads) == 0 {
		return FunctionInfo{Found: false}
	}
	sort.Slice(overloads, func(i, j int) bool { return overloads[i].QualifiedName < overloads[j].QualifiedName })

	out := make([]FunctionOverload, 0, len(overloads))
	for _, s := range overloads {
		out = append(out, FunctionOverload{Symbol: s, ParamTypesCanonical: e.canonicalParamTypes(s)})
	}
	return FunctionInfo{Overloads: out, Found: true}
}

// canonicalParamTypes resolves every alias-looking token the signature
// mentions to its canonical form, via the store's alias tables.
func (e *Engine) canonicalParamTypes(s symbols.Symbol) []string {
	aliases, err := e.store.AllTypeAliases()
	if err != nil {
		return nil
	}
	var canonical []string
	for _, a := range aliases {
		if a.AliasName != "" && containsWord(s.Signature, a.AliasName) {
			canonical = append(canonical, a.CanonicalType)
		}
	}
	return dedupeStrings(canonical)
}

// containsWord reports whether word appears in haystack as a whole
// identifier (not as a substring of a longer identifier).
func containsWord(haystack, word string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}
