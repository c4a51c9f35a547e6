package query

import (
	"github.com/cxxindex/cxxindex/internal/store"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// Stats is the get_stats response: a snapshot of the cache's contents
// irrespective of any particular indexing run.
type Stats struct {
	TotalFiles    int              `json:"totalFiles"`
	TotalSymbols  int              `json:"totalSymbols"`
	SymbolsByKind map[string]int   `json:"symbolsByKind"`
	Cache         store.CacheStats `json:"cache"`
}

// GetStats aggregates the current in-memory index against the cache's
// own byte-level statistics.
func (e *Engine) GetStats() (Stats, error) {
	cacheStats, err := e.store.GetCacheStats()
	if err != nil {
		return Stats{}, err
	}

	byKind := map[string]int{}
	total := 0
	for _, k := range allSymbolKinds() {
		n := len(e.index.SymbolsByKind(k))
		if n > 0 {
			byKind[string(k)] = n
		}
		total += n
	}

	return Stats{
		TotalFiles:    len(e.index.AllFiles()),
		TotalSymbols:  total,
		SymbolsByKind: byKind,
		Cache:         cacheStats,
	}, nil
}

// CallStatistics is the get_call_statistics response: call-graph shape
// plus the live run counters from the coordinator, if one was wired in.
type CallStatistics struct {
	TotalCallSites int      `json:"totalCallSites"`
	RunStats       RunStats `json:"runStats"`
}

// GetCallStatistics reports call-graph size and the coordinator's
// lifetime run counters.
func (e *Engine) GetCallStatistics() (CallStatistics, error) {
	sites, err := e.store.AllCallSites()
	if err != nil {
		return CallStatistics{}, err
	}

	var run RunStats
	if e.runStats != nil {
		run = e.runStats.CallStatistics()
	}

	return CallStatistics{TotalCallSites: len(sites), RunStats: run}, nil
}

func allSymbolKinds() []symbols.Kind {
	kinds := append([]symbols.Kind(nil), classLikeKinds...)
	kinds = append(kinds, functionLikeKinds...)
	kinds = append(kinds, symbols.KindUsing, symbols.KindTypedef)
	return kinds
}
