package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathEmptyToolReturnsEmptyPath(t *testing.T) {
	path, err := Path("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestPathReturnsToolsOutputLine(t *testing.T) {
	// pwd prints exactly one non-empty line, like a real discovery tool
	// printing a resolved libclang path.
	path, err := Path("pwd")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestPathErrorsOnBlankOutput(t *testing.T) {
	// echo with no args prints a single blank line.
	_, err := Path("echo")
	assert.Error(t, err)
}

func TestPathErrorsOnMissingTool(t *testing.T) {
	_, err := Path("cxxindex-discovery-tool-does-not-exist")
	assert.Error(t, err)
}
