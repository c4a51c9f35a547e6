// Package api declares the MCP tool contract for every operation the
// indexing core exposes: one mcp.Tool definition with a jsonschema-go
// input schema per operation, and a Dispatch function the (external,
// unspecified) transport layer calls. No stdio/HTTP serve loop lives
// here — wiring a transport is out of the core's scope.
package api

import (
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cxxindex/cxxindex/internal/coordinator"
	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/query"
)

// Server holds the one active project's Coordinator and, once a project
// is set, the query.Engine built over its Store/Index. set_project_directory is
// the only operation that may (re)build both.
type Server struct {
	mu         sync.RWMutex
	coord      *coordinator.Coordinator
	eng        *query.Engine
	projectSet bool
}

// NewServer builds a Server with no project set; every operation other
// than set_project_directory returns a QueryError until
// set_project_directory succeeds.
func NewServer() *Server {
	return &Server{coord: coordinator.New()}
}

// Tools returns the mcp.Tool definitions for every operation. The order
// follows map iteration over the registry and is not stable between calls.
func Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.tool)
	}
	return out
}

// handlerFunc is the shape every registered operation implements: decode
// raw into its typed params, call the Server, and return a JSON-encodable
// response value.
type handlerFunc func(s *Server, raw json.RawMessage) (any, error)

type registryEntry struct {
	tool    *mcp.Tool
	handler handlerFunc
}

// Dispatch decodes raw against the named operation's params and invokes
// it, returning the response value a transport would marshal back to the
// caller. An unknown name or a params decode failure is a QueryError.
func (s *Server) Dispatch(name string, raw json.RawMessage) (any, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, diagnostics.New(diagnostics.QueryError, "unknown tool %q", name)
	}
	return entry.handler(s, raw)
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return diagnostics.Wrap(diagnostics.QueryError, err, "decoding tool parameters")
	}
	return nil
}

func stringSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func boolSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: description}
}

func intSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func stringArraySchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "string"},
		Description: description,
	}
}

func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}
