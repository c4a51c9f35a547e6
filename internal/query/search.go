package query

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

// maxSuggestions bounds the "did you mean" list; informational only, never
// changes whether a search is considered to have found anything.
const maxSuggestions = 3

// suggestionThreshold is the minimum Jaro-Winkler similarity (0..1, higher
// is stricter) a candidate name must clear to be worth suggesting.
const suggestionThreshold = 0.75

// SearchResult is the response shape for search_classes/search_functions/
// search_symbols: the matches plus optional fuzzy suggestions when empty.
type SearchResult struct {
	Symbols     []symbols.Symbol `json:"symbols"`
	Suggestions []string         `json:"suggestions,omitempty"`
}

// SearchClasses returns class/struct/template/specialization symbols whose
// short or qualified name matches pattern, aggregating a class template's
// primary/specializations/partial-specializations when pattern names the
// template's short name.
func (e *Engine) SearchClasses(pattern string, projectOnly bool, kindFilter []symbols.Kind) (SearchResult, error) {
	kinds := classLikeKinds
	if len(kindFilter) > 0 {
		kinds = kindFilter
	}

	matches, err := e.store.SearchByPattern(pattern, kinds, e.ceiling())
	if err != nil {
		return SearchResult{}, err
	}
	matches = filterProjectOnly(matches, projectOnly)
	matches = e.aggregateTemplateFamily(matches)
	sortByQualifiedName(matches)
	matches = capResults(matches, e.ceiling())

	res := SearchResult{Symbols: matches}
	if len(matches) == 0 {
		res.Suggestions = e.suggestNames(pattern, classLikeKinds)
	}
	return res, nil
}

// aggregateTemplateFamily expands each class-template match into its full
// specialization family via the primary_template_usr back-index, so a
// search for a template's short name returns every specialization too.
func (e *Engine) aggregateTemplateFamily(in []symbols.Symbol) []symbols.Symbol {
	out := append([]symbols.Symbol(nil), in...)
	for _, s := range in {
		if s.Kind != symbols.KindClassTemplate {
			continue
		}
		for _, cand := range e.index.SymbolsByKind(symbols.KindPartialSpecialization) {
			if cand.PrimaryTemplateUSR == s.USR {
				out = append(out, cand)
			}
		}
		for _, cand := range e.index.SymbolsByKind(symbols.KindClass) {
			if cand.PrimaryTemplateUSR == s.USR {
				out = append(out, cand)
			}
		}
	}
	return dedupeByUSR(out)
}

// SearchFunctions returns function/method/function-template symbols
// matching pattern, optionally narrowed to a class's methods and/or by a
// parameter type expanded through the alias network.
func (e *Engine) SearchFunctions(pattern string, className, paramType string, projectOnly bool) (SearchResult, error) {
	matches, err := e.store.SearchByPattern(pattern, functionLikeKinds, e.ceiling())
	if err != nil {
		return SearchResult{}, err
	}
	matches = filterProjectOnly(matches, projectOnly)

	if className != "" {
		narrowed := matches[:0]
		for _, s := range matches {
			if s.ParentClass == className {
				narrowed = append(narrowed, s)
			}
		}
		matches = narrowed
	}

	if paramType != "" {
		variants, err := e.expandParamTypeVariants(paramType)
		if err != nil {
			return SearchResult{}, err
		}
		narrowed := matches[:0]
		for _, s := range matches {
			if signatureMentionsAnyType(s.Signature, variants) {
				narrowed = append(narrowed, s)
			}
		}
		matches = narrowed
	}

	sortByQualifiedName(matches)
	matches = capResults(matches, e.ceiling())

	res := SearchResult{Symbols: matches}
	if len(matches) == 0 {
		res.Suggestions = e.suggestNames(pattern, functionLikeKinds)
	}
	return res, nil
}

// expandParamTypeVariants resolves paramType to its canonical form (if it
// is itself an alias) and returns every alias sharing that canonical form,
// plus the original written type — the full set of textual variants a
// parameter list might spell the same type as.
func (e *Engine) expandParamTypeVariants(paramType string) ([]string, error) {
	canonical, ok, err := e.store.GetCanonicalForAlias(paramType)
	if err != nil {
		return nil, err
	}
	if !ok {
		canonical = paramType
	}

	variants, err := e.store.GetAliasesForCanonical(canonical)
	if err != nil {
		return nil, err
	}
	variants = append(variants, paramType, canonical)
	return dedupeStrings(variants), nil
}

func signatureMentionsAnyType(signature string, variants []string) bool {
	for _, v := range variants {
		if v != "" && strings.Contains(signature, v) {
			return true
		}
	}
	return false
}

// SearchSymbols is the unqualified search_symbols tool: every symbol kind
// unless kindFilter narrows it. Type aliases live in their own table and
// are not searched.
func (e *Engine) SearchSymbols(pattern string, kindFilter []symbols.Kind, projectOnly bool) (SearchResult, error) {
	matches, err := e.store.SearchByPattern(pattern, kindFilter, e.ceiling())
	if err != nil {
		return SearchResult{}, err
	}
	matches = filterProjectOnly(matches, projectOnly)
	sortByQualifiedName(matches)
	matches = capResults(matches, e.ceiling())

	res := SearchResult{Symbols: matches}
	if len(matches) == 0 {
		res.Suggestions = e.suggestNames(pattern, nil)
	}
	return res, nil
}

// suggestNames computes up to maxSuggestions "did you mean" candidates
// against every known name restricted to kinds (or all names if kinds is
// empty), ranking by go-edlib's Jaro-Winkler similarity.
func (e *Engine) suggestNames(pattern string, kinds []symbols.Kind) []string {
	if pattern == "" {
		return nil
	}

	names := e.candidateNames(kinds)
	if len(names) == 0 {
		return nil
	}

	type scored struct {
		name  string
		score float32
	}
	var candidates []scored
	for _, name := range names {
		score, err := edlib.StringsSimilarity(pattern, name, edlib.JaroWinkler)
		if err != nil || score < suggestionThreshold {
			continue
		}
		candidates = append(candidates, scored{name: name, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	out := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		out = append(out, c.name)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func (e *Engine) candidateNames(kinds []symbols.Kind) []string {
	var pool []symbols.Symbol
	if len(kinds) == 0 {
		for _, k := range append(append([]symbols.Kind(nil), classLikeKinds...), functionLikeKinds...) {
			pool = append(pool, e.index.SymbolsByKind(k)...)
		}
	} else {
		for _, k := range kinds {
			pool = append(pool, e.index.SymbolsByKind(k)...)
		}
	}

	seen := map[string]struct{}{}
	var names []string
	for _, s := range pool {
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		names = append(names, s.Name)
	}
	return names
}

func dedupeStrings(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
