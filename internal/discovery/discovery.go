// Package discovery resolves and validates an operator-configured
// libclang discovery tool, the same fail-fast-with-a-good-error shape
// the teacher's checkCtagsAvailable/findCtags pair applies to locating
// Universal Ctags: an environment variable names the tool, a missing or
// misbehaving tool produces a clear diagnostic instead of a bare
// subprocess or cgo failure later.
package discovery

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/cxxindex/cxxindex/linepipes"
)

const installHint = "CXXINDEX_LIBCLANG_DISCOVERY_TOOL must name an executable " +
	"that prints the libclang shared library path on the first line of its stdout."

// Path runs tool with no arguments and returns the path it printed,
// trimmed. An empty tool is valid and returns an empty path: the
// operator is relying on the default system libclang search path
// instead of a custom discovery tool.
func Path(tool string) (string, error) {
	if tool == "" {
		return "", nil
	}
	out, err := linepipes.Single(linepipes.Run(tool))
	if err != nil {
		return "", errors.Wrap(err, "running libclang discovery tool "+linepipes.EscapeArg(tool)+". "+installHint)
	}
	path := strings.TrimSpace(out)
	if path == "" {
		return "", errors.New("libclang discovery tool " + linepipes.EscapeArg(tool) + " produced no output. " + installHint)
	}
	return path, nil
}
