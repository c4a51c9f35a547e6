package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/daedaleanai/cobra"

	"github.com/cxxindex/cxxindex/internal/symbols"
	"github.com/cxxindex/cxxindex/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index once, then refresh on every filesystem change",
	Long: `watch performs an initial index (if the cache is empty) and then
blocks, refreshing the project whenever its source files change, until
interrupted.`,
	RunE: runAndHandleError(runWatch),
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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
		cancel()
	}()

	if coord.State() == symbols.StateUninitialized {
		printWarn("no cache found, indexing before watching...")
		if err := coord.IndexAll(ctx, false); err != nil {
			return err
		}
	}

	w := watch.New(fProjectDir, coord, watch.DefaultDebounceWindow, func(err error) {
		if err != nil {
			printErr("refresh failed: %v", err)
			return
		}
		p := coord.Progress()
		printSuccess("refreshed: %d reparsed, %d from cache, %d failed", p.IndexedFiles, p.CacheHits, p.FailedFiles)
	})

	printSuccess("watching %s for changes (ctrl-c to stop)", fProjectDir)
	return w.Run(ctx)
}
