package query

import (
	"bufio"
	"os"
)

// contextRadius is how many lines of surrounding source find_callers and
// get_call_sites attach to each call site, read from disk on demand.
const contextRadius = 2

// SourceReader abstracts reading a bounded window of source lines so
// tests can substitute an in-memory fixture instead of real files.
type SourceReader interface {
	// Context returns the lines from line-radius to line+radius
	// (1-indexed, clamped to the file's extent), or nil if the file
	// can't be read.
	Context(path string, line int) []string
}

type defaultSourceReader struct{}

func (defaultSourceReader) Context(path string, line int) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	lo := line - contextRadius
	if lo < 1 {
		lo = 1
	}
	hi := line + contextRadius

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo < lo {
			continue
		}
		if lineNo > hi {
			break
		}
		out = append(out, sc.Text())
	}
	return out
}
