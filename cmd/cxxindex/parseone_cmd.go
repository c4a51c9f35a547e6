package main

import (
	"context"
	"os"

	"github.com/daedaleanai/cobra"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/coordinator"
	"github.com/cxxindex/cxxindex/internal/parser"
)

// parseOneCmd is the self-reexec worker entrypoint the coordinator's
// Pool spawns as `<binary> __parse-one`. It is never meant to be typed
// by a user, hence Hidden.
var parseOneCmd = &cobra.Command{
	Use:    coordinator.ParseOneVerb,
	Hidden: true,
	RunE:   runAndHandleError(runParseOne),
}

func init() {
	rootCmd.AddCommand(parseOneCmd)
}

func runParseOne(cmd *cobra.Command, args []string) error {
	p, err := parser.New(os.Getenv(config.EnvParserLibPath), os.Getenv(config.EnvParserSearchTool))
	if err != nil {
		return err
	}
	defer p.Close()

	return coordinator.RunParseOneLoop(context.Background(), os.Stdin, os.Stdout, p)
}
