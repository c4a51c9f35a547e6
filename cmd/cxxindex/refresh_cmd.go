package main

import (
	"context"

	"github.com/daedaleanai/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Incrementally reindex changed and deleted files",
	Long: `refresh rescans the project, reparsing files whose content or compile
arguments changed and pruning cache rows for files that no longer
exist, without reparsing anything else.`,
	RunE: runAndHandleError(runRefresh),
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	coord, _, err := loadCoordinator()
	if err != nil {
		return err
	}
	if err := coord.Refresh(context.Background()); err != nil {
		return err
	}
	p := coord.Progress()
	printSuccess("refreshed: %d reparsed, %d from cache, %d failed", p.IndexedFiles, p.CacheHits, p.FailedFiles)
	return nil
}
