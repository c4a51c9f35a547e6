package main

import (
	"fmt"
	"os"

	"github.com/daedaleanai/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the cache's analyzer state and last run's progress",
	RunE:  runAndHandleError(runStatus),
}

var fStatusFormat string

func init() {
	statusCmd.Flags().StringVar(&fStatusFormat, "format", "text", "output format: text or yaml")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the yaml-marshaled shape of `status --format=yaml`; the
// text format below renders the same fields line by line instead.
type statusReport struct {
	State       symbols.AnalyzerState `yaml:"state"`
	TotalFiles  int                   `yaml:"total_files,omitempty"`
	Indexed     int                   `yaml:"indexed_files,omitempty"`
	CacheHits   int                   `yaml:"cache_hits,omitempty"`
	Failed      int                   `yaml:"failed_files,omitempty"`
	CurrentFile string                `yaml:"current_file,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	coord, _, err := loadCoordinator()
	if err != nil {
		return err
	}

	p := coord.Progress()
	report := statusReport{
		State:       coord.State(),
		TotalFiles:  p.TotalFiles,
		Indexed:     p.IndexedFiles,
		CacheHits:   p.CacheHits,
		Failed:      p.FailedFiles,
		CurrentFile: p.CurrentFile,
	}

	if fStatusFormat == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(report)
	}

	fmt.Printf("state: %s\n", report.State)
	if report.TotalFiles > 0 {
		fmt.Printf("files: %d/%d indexed (%d cache hits, %d failed)\n", report.Indexed, report.TotalFiles, report.CacheHits, report.Failed)
		if report.CurrentFile != "" {
			fmt.Printf("current: %s\n", dim(report.CurrentFile))
		}
	}
	return nil
}
