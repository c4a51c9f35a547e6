//go:build !clang

package parser

import (
	"context"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// unavailableParser is built when the module compiles without the clang
// tag (no libclang headers/library on the build host). Every Parse call
// fails fast with ErrParserUnavailable so the coordinator can surface a
// single clear diagnostic instead of N per-file failures.
type unavailableParser struct{}

// New returns the stub Parser. The libPath/searchTool arguments are
// accepted so callers don't need a build-tag switch of their own at the
// call site; they're unused here.
func New(libPath, searchTool string) (Parser, error) {
	return unavailableParser{}, nil
}

func (unavailableParser) Parse(ctx context.Context, req Request) (symbols.FileRecord, error) {
	return symbols.FileRecord{}, diagnostics.ErrParserUnavailable
}

func (unavailableParser) Close() error { return nil }
