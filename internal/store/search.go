package store

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// looksLikeIdentifierPattern reports whether pattern is plain enough for
// FTS5's prefix matching (letters, digits, underscore, optional trailing
// '*') as opposed to a pattern that needs real regex semantics.
var identifierPrefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\*?$`)

func looksLikeIdentifierPattern(pattern string) bool {
	return identifierPrefixPattern.MatchString(pattern)
}

// SearchByPattern resolves a name search query. Plain identifier-like
// patterns (optionally trailing '*') go through the symbols_fts prefix
// index; anything else — wildcards, character classes, anchors — is
// matched with Go's regexp engine over every known name, which is slower
// but correct for arbitrary patterns.
func (s *Store) SearchByPattern(pattern string, kinds []symbols.Kind, limit int) ([]symbols.Symbol, error) {
	if looksLikeIdentifierPattern(pattern) {
		rows, err := s.searchFTS(pattern, limit)
		if err == nil {
			return filterByKind(rows, kinds), nil
		}
		// FTS5 query syntax errors (rare, e.g. a bare trailing '*') fall
		// through to the regex path instead of failing the whole search.
	}
	return s.searchRegex(pattern, kinds, limit)
}

func (s *Store) searchFTS(pattern string, limit int) ([]symbols.Symbol, error) {
	ftsQuery := strings.TrimSuffix(pattern, "*") + "*"
	rows, err := s.db.Query(`
		SELECT `+prefixed("s", symbolColumns)+`
		FROM symbols_fts
		JOIN symbols s ON s.rowid = symbols_fts.rowid
		WHERE symbols_fts MATCH ?
		ORDER BY s.qualified_name
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []symbols.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning FTS search result")
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) searchRegex(pattern string, kinds []symbols.Kind, limit int) ([]symbols.Symbol, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.QueryError, err, "compiling search pattern %q", pattern)
	}

	rows, err := s.db.Query(`SELECT ` + symbolColumns + ` FROM symbols ORDER BY qualified_name`)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning all symbols for regex search")
	}
	defer rows.Close()

	var out []symbols.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning symbol row")
		}
		if !re.MatchString(sym.Name) && !re.MatchString(sym.QualifiedName) {
			continue
		}
		out = append(out, sym)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return filterByKind(out, kinds), rows.Err()
}

func filterByKind(rows []symbols.Symbol, kinds []symbols.Kind) []symbols.Symbol {
	if len(kinds) == 0 {
		return rows
	}
	want := map[symbols.Kind]struct{}{}
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	var out []symbols.Symbol
	for _, sym := range rows {
		if _, ok := want[sym.Kind]; ok {
			out = append(out, sym)
		}
	}
	return out
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// CallSitesByCaller returns every outgoing call edge from callerUSR.
func (s *Store) CallSitesByCaller(callerUSR string) ([]symbols.CallSite, error) {
	return s.queryCallSites(`SELECT caller_usr, callee_usr, file, line, column FROM call_sites WHERE caller_usr = ?`, callerUSR)
}

// CallSitesByCallee returns every incoming call edge into calleeUSR.
func (s *Store) CallSitesByCallee(calleeUSR string) ([]symbols.CallSite, error) {
	return s.queryCallSites(`SELECT caller_usr, callee_usr, file, line, column FROM call_sites WHERE callee_usr = ?`, calleeUSR)
}

func (s *Store) queryCallSites(query string, args ...any) ([]symbols.CallSite, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "querying call sites")
	}
	defer rows.Close()

	var out []symbols.CallSite
	for rows.Next() {
		var c symbols.CallSite
		if err := rows.Scan(&c.CallerUSR, &c.CalleeUSR, &c.File, &c.Line, &c.Column); err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning call site row")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllCallSites loads the entire call graph, used by the coordinator to
// rebuild the in-memory call-graph index after loading from cache.
func (s *Store) AllCallSites() ([]symbols.CallSite, error) {
	return s.queryCallSites(`SELECT caller_usr, callee_usr, file, line, column FROM call_sites`)
}

// AllSymbols loads every symbol row, used to rebuild in-memory indexes on
// startup from an existing cache.
func (s *Store) AllSymbols() ([]symbols.Symbol, error) {
	return s.querySymbols(`SELECT ` + symbolColumns + ` FROM symbols ORDER BY qualified_name`)
}

// GetAliasesForCanonical returns every alias name whose canonical type
// resolves to canonical.
func (s *Store) GetAliasesForCanonical(canonical string) ([]string, error) {
	rows, err := s.db.Query(`SELECT alias_name FROM type_aliases WHERE canonical_type = ? ORDER BY alias_name`, canonical)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "querying aliases for canonical type %s", canonical)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning alias name")
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// GetCanonicalForAlias returns the canonical type an alias resolves to, if
// known.
func (s *Store) GetCanonicalForAlias(aliasName string) (string, bool, error) {
	var canonical string
	err := s.db.QueryRow(`SELECT canonical_type FROM type_aliases WHERE alias_name = ? LIMIT 1`, aliasName).Scan(&canonical)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, diagnostics.Wrap(diagnostics.StoreIO, err, "querying canonical type for alias %s", aliasName)
	}
	return canonical, true, nil
}

// AllTypeAliases loads every type-alias row.
func (s *Store) AllTypeAliases() ([]symbols.TypeAlias, error) {
	rows, err := s.db.Query(`
		SELECT alias_name, qualified_name, target_type, canonical_type, namespace,
		       alias_kind, is_template_alias, file, line, column
		FROM type_aliases`)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "querying type aliases")
	}
	defer rows.Close()

	var out []symbols.TypeAlias
	for rows.Next() {
		var a symbols.TypeAlias
		var isTemplateAlias int
		if err := rows.Scan(&a.AliasName, &a.QualifiedName, &a.TargetType, &a.CanonicalType, &a.Namespace,
			&a.AliasKind, &isTemplateAlias, &a.File, &a.Line, &a.Column); err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning type alias row")
		}
		a.IsTemplateAlias = isTemplateAlias != 0
		out = append(out, a)
	}
	return out, rows.Err()
}
