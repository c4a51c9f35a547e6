// Package query answers the read-only questions an external agent asks of
// an indexed project: name/pattern search, class and function info,
// call-graph traversal, and file-scoped lookups. It composes
// internal/store's FTS-vs-regex search policy with internal/memindex's
// in-memory graph, and never mutates either.
package query

import (
	"regexp"
	"sort"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/memindex"
	"github.com/cxxindex/cxxindex/internal/store"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// classLikeKinds and functionLikeKinds partition symbols.Kind the way
// search_classes/search_functions need them grouped.
var classLikeKinds = []symbols.Kind{
	symbols.KindClass, symbols.KindStruct, symbols.KindClassTemplate, symbols.KindPartialSpecialization,
}

var functionLikeKinds = []symbols.Kind{
	symbols.KindFunction, symbols.KindMethod, symbols.KindFunctionTemplate,
}

// RunStats is the subset of a coordinator's run counters get_stats and
// get_call_statistics surface; decoupled from internal/coordinator via
// this small struct so the query engine doesn't import it.
type RunStats struct {
	IndexedFiles float64
	FailedFiles  float64
	CacheHits    float64
}

// RunStatsProvider is implemented by internal/coordinator.Coordinator.
type RunStatsProvider interface {
	CallStatistics() RunStats
}

// Engine answers queries against one project's Store and in-memory index.
type Engine struct {
	store        *store.Store
	index        *memindex.Index
	cfg          config.Config
	runStats     RunStatsProvider
	sourceReader SourceReader
}

// New builds a query Engine. runStats may be nil (get_call_statistics then
// reports zeroes for the live run counters).
func New(st *store.Store, idx *memindex.Index, cfg config.Config, runStats RunStatsProvider) *Engine {
	return &Engine{store: st, index: idx, cfg: cfg, runStats: runStats, sourceReader: defaultSourceReader{}}
}

func (e *Engine) ceiling() int {
	if e.cfg.SearchResultCeiling > 0 {
		return e.cfg.SearchResultCeiling
	}
	return 10000
}

func (e *Engine) maxDepth() int {
	if e.cfg.MaxTraversalDepth > 0 {
		return e.cfg.MaxTraversalDepth
	}
	return 64
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.QueryError, err, "invalid pattern %q", pattern)
	}
	return re, nil
}

func filterProjectOnly(in []symbols.Symbol, projectOnly bool) []symbols.Symbol {
	if !projectOnly {
		return in
	}
	out := in[:0]
	for _, s := range in {
		if s.IsProject {
			out = append(out, s)
		}
	}
	return out
}

func dedupeByUSR(in []symbols.Symbol) []symbols.Symbol {
	seen := map[string]struct{}{}
	out := make([]symbols.Symbol, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s.USR]; ok {
			continue
		}
		seen[s.USR] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortByQualifiedName(in []symbols.Symbol) {
	sort.Slice(in, func(i, j int) bool { return in[i].QualifiedName < in[j].QualifiedName })
}

func capResults(in []symbols.Symbol, limit int) []symbols.Symbol {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
