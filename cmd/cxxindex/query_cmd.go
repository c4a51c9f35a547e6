package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/daedaleanai/cobra"

	"github.com/cxxindex/cxxindex/internal/query"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer structural questions against the project's cache",
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

// loadEngine loads the project's existing cache (no parsing) and wires a
// query.Engine over it; queries never trigger indexing themselves.
func loadEngine() (*query.Engine, error) {
	coord, cfg, err := loadCoordinator()
	if err != nil {
		return nil, err
	}
	return query.New(coord.Store(), coord.Index(), cfg, coord), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// colorizeSource renders src as syntax-highlighted C++ for a terminal, or
// returns it unchanged when color is disabled (stdout is not a terminal).
func colorizeSource(src string) string {
	if !colorEnabled {
		return src
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, "cpp", "terminal256", "monokai"); err != nil {
		return src
	}
	return buf.String()
}

func printContext(lines []string, highlightLine int) {
	for i, l := range lines {
		marker := "  "
		if i == highlightLine {
			marker = "> "
		}
		fmt.Printf("%s%s\n", dim(marker), colorizeSource(l))
	}
}

func parseKinds(raw []string) []symbols.Kind {
	if len(raw) == 0 {
		return nil
	}
	out := make([]symbols.Kind, len(raw))
	for i, k := range raw {
		out[i] = symbols.Kind(k)
	}
	return out
}

var (
	fProjectOnly bool
	fKinds       []string
)

func addCommonSearchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&fProjectOnly, "project-only", false, "exclude dependency code from results")
	cmd.Flags().StringSliceVar(&fKinds, "kind", nil, "restrict to these symbol kinds (repeatable)")
}

var searchClassesCmd = &cobra.Command{
	Use:   "search-classes PATTERN",
	Short: "Find classes/structs/templates by name or regex",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		res, err := eng.SearchClasses(args[0], fProjectOnly, parseKinds(fKinds))
		if err != nil {
			return err
		}
		return printJSON(res)
	}),
}

var (
	fFuncClass     string
	fFuncParamType string
)

var searchFunctionsCmd = &cobra.Command{
	Use:   "search-functions PATTERN",
	Short: "Find functions/methods/templates by name or regex",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		res, err := eng.SearchFunctions(args[0], fFuncClass, fFuncParamType, fProjectOnly)
		if err != nil {
			return err
		}
		return printJSON(res)
	}),
}

var searchSymbolsCmd = &cobra.Command{
	Use:   "search-symbols PATTERN",
	Short: "Find any symbol kind by name or regex",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		res, err := eng.SearchSymbols(args[0], parseKinds(fKinds), fProjectOnly)
		if err != nil {
			return err
		}
		return printJSON(res)
	}),
}

var classInfoCmd = &cobra.Command{
	Use:   "class-info NAME",
	Short: "Show a class's base/derived hierarchy and methods",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		return printJSON(eng.GetClassInfo(args[0]))
	}),
}

var functionInfoCmd = &cobra.Command{
	Use:   "function-info NAME",
	Short: "Show every overload of a function/method/template",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		return printJSON(eng.GetFunctionInfo(args[0]))
	}),
}

var callersCmd = &cobra.Command{
	Use:   "callers FUNCTION",
	Short: "List every call site that invokes FUNCTION",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		return printCallEdges(eng.FindCallers(args[0]))
	}),
}

var callSitesCmd = &cobra.Command{
	Use:   "call-sites CALLER",
	Short: "List every function CALLER invokes",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		return printCallEdges(eng.GetCallSites(args[0]))
	}),
}

func printCallEdges(edges []query.CallEdge) error {
	if jsonOutput {
		return printJSON(edges)
	}
	for _, e := range edges {
		fmt.Printf("%s:%d:%d  %s\n", e.File, e.Line, e.Column, e.Name)
		if len(e.Context) > 0 {
			printContext(e.Context, len(e.Context)/2)
		}
	}
	return nil
}

var fMaxDepth int

var callPathCmd = &cobra.Command{
	Use:   "call-path FROM TO",
	Short: "Find the shortest call chain(s) from FROM to TO",
	Long: `call-path searches the call graph breadth-first for the shortest
chain(s) of calls from FROM to TO. --max-depth=0 asks for a zero-edge
path, which only exists when FROM and TO name the same function;
omitting the flag uses the project's configured traversal depth.`,
	Args: cobra.ExactArgs(2),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		return printJSON(eng.GetCallPath(args[0], args[1], fMaxDepth))
	}),
}

var classHierarchyCmd = &cobra.Command{
	Use:   "class-hierarchy NAME",
	Short: "Show a class's full base and derived chain",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		bases, derived, found := eng.GetClassHierarchy(args[0])
		return printJSON(struct {
			Bases   []query.HierarchyNode `json:"bases"`
			Derived []query.HierarchyNode `json:"derived"`
			Found   bool                  `json:"found"`
		}{bases, derived, found})
	}),
}

var findInFileCmd = &cobra.Command{
	Use:   "find-in-file FILE PATTERN",
	Short: "Find symbols defined in FILE whose name matches PATTERN",
	Args:  cobra.ExactArgs(2),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		syms, err := eng.FindInFile(args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(syms)
	}),
}

var filesContainingSymbolCmd = &cobra.Command{
	Use:   "files-containing-symbol NAME",
	Short: "List files that define or declare a symbol named NAME",
	Args:  cobra.ExactArgs(1),
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		files := eng.GetFilesContainingSymbol(args[0], parseKinds(fKinds), fProjectOnly)
		if jsonOutput {
			return printJSON(files)
		}
		fmt.Println(strings.Join(files, "\n"))
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report cache-wide symbol and file counts",
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		s, err := eng.GetStats()
		if err != nil {
			return err
		}
		return printJSON(s)
	}),
}

var callStatisticsCmd = &cobra.Command{
	Use:   "call-statistics",
	Short: "Report call-graph size and lifetime run counters",
	RunE: runAndHandleError(func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine()
		if err != nil {
			return err
		}
		s, err := eng.GetCallStatistics()
		if err != nil {
			return err
		}
		return printJSON(s)
	}),
}

var jsonOutput bool

func init() {
	queryCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "force JSON output even for human-oriented subcommands")

	addCommonSearchFlags(searchClassesCmd)
	addCommonSearchFlags(searchSymbolsCmd)
	searchFunctionsCmd.Flags().BoolVar(&fProjectOnly, "project-only", false, "exclude dependency code from results")
	searchFunctionsCmd.Flags().StringVar(&fFuncClass, "class", "", "restrict to methods of this class")
	searchFunctionsCmd.Flags().StringVar(&fFuncParamType, "param-type", "", "restrict to overloads taking this parameter type")
	addCommonSearchFlags(filesContainingSymbolCmd)
	callPathCmd.Flags().IntVar(&fMaxDepth, "max-depth", -1, "maximum call-graph depth to search (0 = same function only, -1 = project default)")

	queryCmd.AddCommand(
		searchClassesCmd, searchFunctionsCmd, searchSymbolsCmd,
		classInfoCmd, functionInfoCmd,
		callersCmd, callSitesCmd, callPathCmd, classHierarchyCmd,
		findInFileCmd, filesContainingSymbolCmd,
		statsCmd, callStatisticsCmd,
	)
}
