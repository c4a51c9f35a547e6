package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

var (
	colorEnabled = isatty.IsTerminal(os.Stdout.Fd())

	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

func init() {
	color.NoColor = !colorEnabled
}

// newIndexingBar builds a progress bar sized to total files, matching the
// one-bar-per-run shape get_indexing_status reports over the tool
// protocol; total<=0 renders an indeterminate spinner instead.
func newIndexingBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printSuccess(format string, a ...any) { successColor.Printf(format+"\n", a...) }
func printWarn(format string, a ...any)    { warnColor.Printf(format+"\n", a...) }
func printErr(format string, a ...any)     { errColor.Fprintf(os.Stderr, format+"\n", a...) }
func dim(s string) string                  { return dimColor.Sprint(s) }
