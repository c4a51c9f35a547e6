// Package parser drives libclang across one translation unit per call,
// producing a symbols.FileRecord. The real implementation lives in
// parser_clang.go behind the `clang` build tag — mirroring the teacher's
// own clang.go gating — because the spec's USR-based symbol identity has
// no meaning without a libclang install on the host. Building without the
// tag yields a Parser whose Parse always reports
// diagnostics.ErrParserUnavailable, so the rest of the module (store,
// memindex, coordinator, query) compiles and tests independently of
// whether libclang is present.
package parser

import (
	"context"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

// Request describes one translation unit to parse. It is JSON-encodable
// so the coordinator's self-reexec worker processes can receive it over a
// pipe exactly as they would any other IPC message.
type Request struct {
	File            string   `json:"file"`            // absolute path of the TU's primary source file
	Argv            []string `json:"argv"`            // compiler argument vector (without the executable name)
	IsProject       bool     `json:"isProject"`
	CompileArgsHash string   `json:"compileArgsHash"`

	// ClaimedHeaders maps an already-processed header's absolute path to
	// the source file that claimed it under this CompileArgsHash, letting
	// the worker skip re-extracting cursors from a header another
	// translation unit already contributed, without needing a live
	// callback across the process boundary.
	ClaimedHeaders map[string]string `json:"claimedHeaders,omitempty"`
}

// HeaderAlreadyClaimed reports whether headerPath was processed by a file
// other than req.File under the same compile-args hash.
func (r Request) HeaderAlreadyClaimed(headerPath string) bool {
	processedBy, ok := r.ClaimedHeaders[headerPath]
	return ok && processedBy != r.File
}

// Parser extracts a symbols.FileRecord from one translation unit.
type Parser interface {
	// Parse runs the parse and returns a best-effort FileRecord: a parser
	// exception produces a partial record plus a ParseError entry rather
	// than an error return, per the worker's "never abort the whole index
	// over one file" contract. The error return is reserved for requests
	// that could not even be attempted (unavailable parser library,
	// cancelled context).
	Parse(ctx context.Context, req Request) (symbols.FileRecord, error)

	// Close releases the parser's translation-unit index and any other
	// process-local resources. Safe to call once per worker lifetime end.
	Close() error
}
