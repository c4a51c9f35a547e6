package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCompileCommands(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compile_commands.json"), []byte("[]"), 0o644))
}

func TestDispatchUnknownToolIsQueryError(t *testing.T) {
	s := NewServer()
	_, err := s.Dispatch("not_a_real_tool", nil)
	assert.Error(t, err)
}

func TestDispatchQueryToolsBeforeSetProjectDirectoryIsError(t *testing.T) {
	s := NewServer()
	_, err := s.Dispatch("search_classes", json.RawMessage(`{"pattern":"Foo"}`))
	assert.Error(t, err)
}

func TestGetIndexingStatusBeforeSetProjectDirectoryIsError(t *testing.T) {
	s := NewServer()
	_, err := s.Dispatch("get_indexing_status", nil)
	assert.Error(t, err)
}

func TestSetProjectDirectoryRequiresPath(t *testing.T) {
	s := NewServer()
	_, err := s.Dispatch("set_project_directory", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestSetProjectDirectoryOnEmptyProjectReportsStatus(t *testing.T) {
	dir := t.TempDir()
	writeCompileCommands(t, dir)

	s := NewServer()
	raw, err := json.Marshal(SetProjectDirectoryParams{Path: dir})
	require.NoError(t, err)

	res, err := s.Dispatch("set_project_directory", raw)
	require.NoError(t, err)
	_, ok := res.(SetProjectDirectoryResult)
	assert.True(t, ok)

	status, err := s.Dispatch("get_indexing_status", nil)
	require.NoError(t, err)
	_, ok = status.(GetIndexingStatusResult)
	assert.True(t, ok)
}

func TestToolsListsEveryProtocolOperation(t *testing.T) {
	tools := Tools()
	names := map[string]struct{}{}
	for _, tl := range tools {
		names[tl.Name] = struct{}{}
	}
	for _, want := range []string{
		"set_project_directory", "get_indexing_status", "refresh_project",
		"search_classes", "search_functions", "search_symbols",
		"get_class_info", "get_function_info",
		"find_callers", "get_call_sites", "get_call_path", "get_class_hierarchy",
		"find_in_file", "get_files_containing_symbol",
		"get_stats", "get_call_statistics", "get_cross_references",
	} {
		_, ok := names[want]
		assert.True(t, ok, "missing tool %s", want)
	}
}

func TestGetCrossReferencesAlwaysEmptyWithDeprecationNote(t *testing.T) {
	dir := t.TempDir()
	writeCompileCommands(t, dir)

	s := NewServer()
	raw, _ := json.Marshal(SetProjectDirectoryParams{Path: dir})
	_, err := s.Dispatch("set_project_directory", raw)
	require.NoError(t, err)

	res, err := s.Dispatch("get_cross_references", json.RawMessage(`{"name":"Foo"}`))
	require.NoError(t, err)
	result, ok := res.(GetCrossReferencesResult)
	require.True(t, ok)
	assert.Empty(t, result.References)
	assert.NotEmpty(t, result.Deprecated)
}
