package api

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registry holds the full tool protocol surface (§6.2), in the order
// listed there: project lifecycle first, then the read-only query
// operations.
var registry = map[string]registryEntry{
	"set_project_directory": {
		tool: &mcp.Tool{
			Name:        "set_project_directory",
			Description: "Set the active project root, open (or create) its cache, and begin indexing if the cache is empty.",
			InputSchema: objectSchema([]string{"path"}, map[string]*jsonschema.Schema{
				"path":   stringSchema("Absolute or relative path to the project root."),
				"config": &jsonschema.Schema{Type: "object", Description: "Partial configuration overriding this project's resolved defaults."},
			}),
		},
		handler: handleSetProjectDirectory,
	},
	"get_indexing_status": {
		tool: &mcp.Tool{
			Name:        "get_indexing_status",
			Description: "Report the coordinator's current analyzer state and the latest run's progress. Answerable at any time, including mid-index, without blocking.",
			InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{}),
		},
		handler: handleGetIndexingStatus,
	},
	"refresh_project": {
		tool: &mcp.Tool{
			Name:        "refresh_project",
			Description: "Re-scan the project, prune deleted files, and reparse whatever changed since the last index or refresh.",
			InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
				"force": boolSchema("Reparse every file regardless of cache hash match."),
			}),
		},
		handler: handleRefreshProject,
	},
	"search_classes": {
		tool: &mcp.Tool{
			Name:        "search_classes",
			Description: "Search class/struct/template/specialization symbols by short or qualified name. A class template's short name aggregates its full specialization family.",
			InputSchema: objectSchema([]string{"pattern"}, map[string]*jsonschema.Schema{
				"pattern":      stringSchema("Plain identifier (FTS) or regular expression."),
				"project_only": boolSchema("Restrict to symbols defined inside the project tree."),
				"kind_filter":  stringArraySchema("Restrict to these symbols.Kind values; defaults to all class-like kinds."),
			}),
		},
		handler: handleSearchClasses,
	},
	"search_functions": {
		tool: &mcp.Tool{
			Name:        "search_functions",
			Description: "Search function/method/function-template symbols, optionally narrowed to a class's methods and/or by a parameter type expanded through the type-alias network.",
			InputSchema: objectSchema([]string{"pattern"}, map[string]*jsonschema.Schema{
				"pattern":      stringSchema("Plain identifier (FTS) or regular expression."),
				"class_name":   stringSchema("Restrict to methods whose parent_class matches exactly."),
				"param_type":   stringSchema("Restrict to overloads mentioning this type or any alias sharing its canonical form."),
				"project_only": boolSchema("Restrict to symbols defined inside the project tree."),
			}),
		},
		handler: handleSearchFunctions,
	},
	"search_symbols": {
		tool: &mcp.Tool{
			Name:        "search_symbols",
			Description: "Unqualified symbol search across every kind: classes, functions, aliases.",
			InputSchema: objectSchema([]string{"pattern"}, map[string]*jsonschema.Schema{
				"pattern":      stringSchema("Plain identifier (FTS) or regular expression."),
				"kind_filter":  stringArraySchema("Restrict to these symbols.Kind values."),
				"project_only": boolSchema("Restrict to symbols defined inside the project tree."),
			}),
		},
		handler: handleSearchSymbols,
	},
	"get_class_info": {
		tool: &mcp.Tool{
			Name:        "get_class_info",
			Description: "Primary location, recursive base/derived hierarchy, methods, and doc fields for one class.",
			InputSchema: objectSchema([]string{"name"}, map[string]*jsonschema.Schema{
				"name": stringSchema("Short or qualified class name."),
			}),
		},
		handler: handleGetClassInfo,
	},
	"get_function_info": {
		tool: &mcp.Tool{
			Name:        "get_function_info",
			Description: "Every overload sharing a function name, each with signature, location, template metadata, and canonical parameter types.",
			InputSchema: objectSchema([]string{"name"}, map[string]*jsonschema.Schema{
				"name": stringSchema("Function name (unqualified)."),
			}),
		},
		handler: handleGetFunctionInfo,
	},
	"find_callers": {
		tool: &mcp.Tool{
			Name:        "find_callers",
			Description: "Every call site whose callee is the named function, ordered by file/line/column, with ±2 lines of source context.",
			InputSchema: objectSchema([]string{"function"}, map[string]*jsonschema.Schema{
				"function": stringSchema("Callee function name."),
			}),
		},
		handler: handleFindCallers,
	},
	"get_call_sites": {
		tool: &mcp.Tool{
			Name:        "get_call_sites",
			Description: "Every outgoing call from the named caller function, ordered by file/line/column, with ±2 lines of source context.",
			InputSchema: objectSchema([]string{"caller"}, map[string]*jsonschema.Schema{
				"caller": stringSchema("Caller function name."),
			}),
		},
		handler: handleGetCallSites,
	},
	"get_call_path": {
		tool: &mcp.Tool{
			Name:        "get_call_path",
			Description: "Breadth-first search over the call graph for all shortest from->to paths, bounded by max_depth; ties broken lexicographically by caller USR.",
			InputSchema: objectSchema([]string{"from", "to"}, map[string]*jsonschema.Schema{
				"from":      stringSchema("Starting function name."),
				"to":        stringSchema("Target function name."),
				"max_depth": intSchema("Maximum edges to traverse; 0 returns a path only if from==to; omitted uses the configured default."),
			}),
		},
		handler: handleGetCallPath,
	},
	"get_class_hierarchy": {
		tool: &mcp.Tool{
			Name:        "get_class_hierarchy",
			Description: "Depth-first base/derived class hierarchy with cycle detection, tie-broken lexicographically by name.",
			InputSchema: objectSchema([]string{"name"}, map[string]*jsonschema.Schema{
				"name": stringSchema("Short or qualified class name."),
			}),
		},
		handler: handleGetClassHierarchy,
	},
	"find_in_file": {
		tool: &mcp.Tool{
			Name:        "find_in_file",
			Description: "Regular-expression scan of every symbol recorded for one file.",
			InputSchema: objectSchema([]string{"file", "pattern"}, map[string]*jsonschema.Schema{
				"file":    stringSchema("Absolute file path as recorded in the cache."),
				"pattern": stringSchema("Regular expression."),
			}),
		},
		handler: handleFindInFile,
	},
	"get_files_containing_symbol": {
		tool: &mcp.Tool{
			Name:        "get_files_containing_symbol",
			Description: "Deduplicated, sorted union of the defining file, declaring header, and every file containing a call site whose callee matches.",
			InputSchema: objectSchema([]string{"name"}, map[string]*jsonschema.Schema{
				"name":         stringSchema("Symbol name (unqualified or qualified)."),
				"kind_filter":  stringArraySchema("Restrict to these symbols.Kind values."),
				"project_only": boolSchema("Restrict to symbols defined inside the project tree."),
			}),
		},
		handler: handleGetFilesContainingSymbol,
	},
	"get_stats": {
		tool: &mcp.Tool{
			Name:        "get_stats",
			Description: "Cache-wide symbol and file counts, broken down by kind.",
			InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{}),
		},
		handler: handleGetStats,
	},
	"get_call_statistics": {
		tool: &mcp.Tool{
			Name:        "get_call_statistics",
			Description: "Call-graph size plus the coordinator's lifetime indexing run counters.",
			InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{}),
		},
		handler: handleGetCallStatistics,
	},
	"get_cross_references": {
		tool: &mcp.Tool{
			Name:        "get_cross_references",
			Description: "Deprecated: not part of this core. Always returns an empty list with a deprecation note.",
			InputSchema: objectSchema([]string{"name"}, map[string]*jsonschema.Schema{
				"name": stringSchema("Symbol name (ignored)."),
			}),
		},
		handler: handleGetCrossReferences,
	},
}
