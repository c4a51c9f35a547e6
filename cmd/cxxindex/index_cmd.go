package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daedaleanai/cobra"
	"github.com/schollz/progressbar/v3"

	"github.com/cxxindex/cxxindex/internal/coordinator"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

var fIndexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the project and (re)build its symbol cache",
	Long: `index loads (or creates) the project's cache, then parses every file
whose content or compile arguments changed since the last run. Pass
--force to ignore the cache and reparse everything.`,
	RunE: runAndHandleError(runIndex),
}

func init() {
	indexCmd.Flags().BoolVar(&fIndexForce, "force", false, "reparse every file, ignoring the cache")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	coord, _, err := loadCoordinator()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		printWarn("cancelling...")
		coord.Cancel()
	}()

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		reportIndexProgress(ctx, coord)
	}()

	runErr := coord.IndexAll(ctx, fIndexForce)
	cancel()
	<-progressDone
	if runErr != nil {
		return runErr
	}

	p := coord.Progress()
	printSuccess("indexed %d files (%d from cache, %d failed)", p.IndexedFiles, p.CacheHits, p.FailedFiles)
	return nil
}

// reportIndexProgress polls Coordinator.Progress, rendering one bar for
// the whole run once the total file count is known, until the run
// leaves the indexing state or ctx is cancelled.
func reportIndexProgress(ctx context.Context, coord *coordinator.Coordinator) {
	var bar *progressbar.ProgressBar
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		p := coord.Progress()
		if bar == nil && p.TotalFiles > 0 {
			bar = newIndexingBar(p.TotalFiles, "indexing")
		}
		if bar != nil {
			_ = bar.Set(p.IndexedFiles + p.FailedFiles + p.CacheHits)
		}

		switch coord.State() {
		case symbols.StateIndexed, symbols.StateError, symbols.StateReadyFromCache:
			if bar != nil {
				_ = bar.Finish()
			}
			return
		}

		select {
		case <-ctx.Done():
			if bar != nil {
				_ = bar.Finish()
			}
			return
		case <-ticker.C:
		}
	}
}
