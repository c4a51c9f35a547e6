package parser

import "github.com/cxxindex/cxxindex/internal/symbols"

// CursorKind is the tagged-union discriminant the AST walk dispatches on,
// per the "polymorphism over extraction" design: one handler per variant
// instead of a type hierarchy over cursor kinds.
type CursorKind int

const (
	CursorOther CursorKind = iota
	CursorClass
	CursorStruct
	CursorClassTemplate
	CursorPartialSpecialization
	CursorFunction
	CursorMethod
	CursorFunctionTemplate
	CursorUsingAlias
	CursorTypedefAlias
)

// Fragment is the tagged-union payload the cursor-kind dispatcher produces
// for one AST cursor — exactly one of Symbol/Alias is meaningful,
// selected by Kind.
type Fragment struct {
	Kind   CursorKind
	Symbol symbols.Symbol
	Alias  symbols.TypeAlias
}

// appendFragment maps Fragment back onto the record it contributes to;
// kept as a small pure function so the dispatch logic in parser_clang.go
// stays a thin cursor-kind switch with no FileRecord-shaping decisions of
// its own.
func appendFragment(rec *symbols.FileRecord, f Fragment) {
	switch f.Kind {
	case CursorClass, CursorStruct, CursorClassTemplate, CursorPartialSpecialization,
		CursorFunction, CursorMethod, CursorFunctionTemplate:
		rec.Symbols = append(rec.Symbols, f.Symbol)
	case CursorUsingAlias, CursorTypedefAlias:
		rec.Aliases = append(rec.Aliases, f.Alias)
	}
}
