//go:build !clang

package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
)

func TestUnavailableParserReportsErrParserUnavailable(t *testing.T) {
	p, err := New("", "")
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Parse(context.Background(), Request{File: "widget.cpp"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diagnostics.Sentinel(diagnostics.ConfigError)))
}
