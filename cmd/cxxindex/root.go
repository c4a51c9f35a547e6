// cxxindex is the command-line entrypoint: a cobra command tree wiring
// internal/config, internal/coordinator, internal/query, and
// internal/watch together for operators who want to index, query, and
// watch a C++ project without a tool-protocol client. The hidden
// __parse-one subcommand is the coordinator's own self-reexec worker
// entrypoint, never invoked directly by a user.
package main

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/daedaleanai/cobra"
	"github.com/pkg/errors"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/coordinator"
	"github.com/cxxindex/cxxindex/linepipes"
	"github.com/cxxindex/cxxindex/util"
)

var rootCmd = &cobra.Command{
	Use:   "cxxindex",
	Short: "cxxindex indexes a C++ project and answers structural queries against it.",
	Long: `cxxindex scans a C++ project's compile database, extracts classes,
functions, and the call graph with libclang, and caches the result so
repeated queries and incremental reindexing stay fast. It's the CLI
surface over the same core a tool-protocol integration would embed.`,
	Version: fmt.Sprintf("%d.%d.%d", util.Version.Major, util.Version.Minor, util.Version.Revision),
}

var fProjectDir string

func init() {
	rootCmd.PersistentFlags().StringVarP(&fProjectDir, "project", "p", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&linepipes.Verbose, "verbose", "v", false, "log every external tool invocation (e.g. libclang discovery)")
}

// loadCoordinator resolves config for fProjectDir and sets it as the
// coordinator's project, loading any existing cache.
func loadCoordinator() (*coordinator.Coordinator, config.Config, error) {
	cfg, err := config.Load(fProjectDir)
	if err != nil {
		return nil, config.Config{}, err
	}

	coord := coordinator.New()
	if err := coord.SetProject(fProjectDir, cfg); err != nil {
		return nil, config.Config{}, err
	}
	return coord, cfg, nil
}

// runAndHandleError wraps a RunE body so argument-parsing errors (which
// cobra itself already reports) are never confused with errors our own
// commands return, matching the teacher's own error/exit-code split.
func runAndHandleError(runE func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := runE(cmd, args); err != nil {
			name := runtime.FuncForPC(reflect.ValueOf(runE).Pointer()).Name()
			name = name[strings.LastIndex(name, ".")+1:]
			fmt.Fprintln(os.Stderr, errors.Wrap(err, name))
			os.Exit(1)
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
