package query

import (
	"sort"
)

// CallEdge is one entry of a find_callers/get_call_sites response: the
// other end of the edge (caller or callee, per which tool asked), its
// location, and ±2 lines of surrounding source read on demand.
type CallEdge struct {
	USR     string   `json:"usr"`
	Name    string   `json:"name,omitempty"`
	File    string   `json:"file"`
	Line    int      `json:"line"`
	Column  int      `json:"column"`
	Context []string `json:"context,omitempty"`
}

// FindCallers returns every call site whose callee is the named function
// (all overloads), ordered by file, then line, then column. An unknown
// function name returns an empty, non-error result.
func (e *Engine) FindCallers(function string) []CallEdge {
	var edges []CallEdge
	for _, callee := range e.resolveFunctionUSRs(function) {
		for _, callerUSR := range e.index.Callers(callee) {
			sites := callSitesBetween(e, callerUSR, callee)
			if len(sites) == 0 {
				edges = append(edges, e.buildEdge(callerUSR, "", 0, 0))
			}
			for _, site := range sites {
				edges = append(edges, e.buildEdge(callerUSR, site.File, site.Line, site.Column))
			}
		}
	}
	sortCallEdges(edges)
	return edges
}

// GetCallSites returns every outgoing call from the named caller function
// (all overloads), ordered by file, then line, then column.
func (e *Engine) GetCallSites(caller string) []CallEdge {
	var edges []CallEdge
	for _, callerUSR := range e.resolveFunctionUSRs(caller) {
		for _, calleeUSR := range e.index.Callees(callerUSR) {
			sites := callSitesBetween(e, callerUSR, calleeUSR)
			if len(sites) == 0 {
				edges = append(edges, e.buildEdge(calleeUSR, "", 0, 0))
			}
			for _, site := range sites {
				edges = append(edges, e.buildEdge(calleeUSR, site.File, site.Line, site.Column))
			}
		}
	}
	sortCallEdges(edges)
	return edges
}

func (e *Engine) resolveFunctionUSRs(name string) []string {
	var usrs []string
	for _, k := range functionLikeKinds {
		for _, s := range e.index.SymbolsByKind(k) {
			if s.Name == name || s.QualifiedName == name {
				usrs = append(usrs, s.USR)
			}
		}
	}
	return usrs
}

// calleeSiteFor returns the location of the first recorded call_sites row
// for one caller/callee pair, or an empty location when the Store holds
// none. FindCallers and GetCallSites do not use it: they report one edge
// per recorded row.
func (e *Engine) calleeSiteFor(callerUSR, calleeUSR string) (string, int, int) {
	sites, err := e.store.CallSitesByCaller(callerUSR)
	if err != nil {
		return "", 0, 0
	}
	for _, s := range sites {
		if s.CalleeUSR == calleeUSR {
			return s.File, s.Line, s.Column
		}
	}
	return "", 0, 0
}

func (e *Engine) buildEdge(usr string, file string, line, column int) CallEdge {
	edge := CallEdge{USR: usr, File: file, Line: line, Column: column}
	if sym, ok := e.index.SymbolByUSR(usr); ok {
		edge.Name = sym.QualifiedName
	}
	if file != "" && line > 0 {
		edge.Context = e.sourceReader.Context(file, line)
	}
	return edge
}

func sortCallEdges(edges []CallEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].File != edges[j].File {
			return edges[i].File < edges[j].File
		}
		if edges[i].Line != edges[j].Line {
			return edges[i].Line < edges[j].Line
		}
		return edges[i].Column < edges[j].Column
	})
}

// CallPath is one shortest caller->callee chain returned by GetCallPath.
type CallPath struct {
	USRs []string `json:"usrs"`
}

// GetCallPath runs a breadth-first search over the directed call graph
// from every USR named `from` to every USR named `to`, bounded by
// maxDepth, returning all shortest paths (ties broken lexicographically
// by each step's caller USR). A path never revisits a node. Exceeding
// maxDepth without finding a path is not an error — it returns no paths.
// maxDepth=0 is a zero-edge search: it returns a (trivial, single-node)
// path iff from and to name the same function, and nothing otherwise.
func (e *Engine) GetCallPath(from, to string, maxDepth int) []CallPath {
	if maxDepth < 0 {
		maxDepth = e.maxDepth()
	}

	fromUSRs := e.resolveFunctionUSRs(from)
	toSet := map[string]struct{}{}
	for _, u := range e.resolveFunctionUSRs(to) {
		toSet[u] = struct{}{}
	}
	if len(fromUSRs) == 0 || len(toSet) == 0 {
		return nil
	}
	sort.Strings(fromUSRs)

	var all []CallPath
	bestLen := -1
	for _, start := range fromUSRs {
		if _, ok := toSet[start]; ok {
			if bestLen != 1 {
				all = nil
			}
			all = append(all, CallPath{USRs: []string{start}})
			bestLen = 1
			continue
		}
		paths := bfsShortestPaths(start, toSet, maxDepth, e.index.Callees)
		for _, p := range paths {
			if bestLen == -1 || len(p) < bestLen {
				bestLen = len(p)
				all = []CallPath{{USRs: p}}
			} else if len(p) == bestLen {
				all = append(all, CallPath{USRs: p})
			}
		}
	}

	sort.Slice(all, func(i, j int) bool { return pathLess(all[i].USRs, all[j].USRs) })
	return all
}

func pathLess(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// bfsShortestPaths returns every shortest path from start to any node in
// targets, bounded by maxDepth edges, never revisiting a node.
func bfsShortestPaths(start string, targets map[string]struct{}, maxDepth int, neighbors func(string) []string) [][]string {
	type queueItem struct {
		node string
		path []string
	}

	visited := map[string]int{start: 0}
	queue := []queueItem{{node: start, path: []string{start}}}
	var found [][]string
	foundDepth := -1

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if foundDepth != -1 && len(item.path)-1 > foundDepth {
			continue
		}
		if len(item.path)-1 >= maxDepth {
			continue
		}

		next := append([]string(nil), neighbors(item.node)...)
		sort.Strings(next)
		for _, n := range next {
			if containsInPath(item.path, n) {
				continue
			}
			depth := len(item.path)
			if d, seen := visited[n]; seen && d < depth {
				continue
			}
			visited[n] = depth

			newPath := append(append([]string(nil), item.path...), n)
			if _, isTarget := targets[n]; isTarget {
				if foundDepth == -1 {
					foundDepth = len(newPath) - 1
				}
				if len(newPath)-1 == foundDepth {
					found = append(found, newPath)
				}
				continue
			}
			queue = append(queue, queueItem{node: n, path: newPath})
		}
	}
	return found
}

func containsInPath(path []string, node string) bool {
	for _, p := range path {
		if p == node {
			return true
		}
	}
	return false
}

// GetClassHierarchy returns the DFS base/derived hierarchy for the named
// class, reusing the same traversal GetClassInfo uses.
func (e *Engine) GetClassHierarchy(name string) (bases, derived []HierarchyNode, found bool) {
	sym, ok := e.resolveClassByName(name)
	if !ok {
		return nil, nil, false
	}
	visited := map[string]struct{}{sym.QualifiedName: {}}
	return e.baseHierarchy(sym, visited, 0), e.derivedHierarchy(sym, visited, 0), true
}
