package ccdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/config"
)

func writeCCDB(t *testing.T, dir string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compile_commands.json"), []byte(body), 0o644))
}

func TestLoadAndArgsFor(t *testing.T) {
	dir := t.TempDir()
	body := `[
		{"directory": "` + dir + `", "file": "a.cpp", "arguments": ["clang++", "-std=c++20", "a.cpp"]},
		{"directory": "` + dir + `", "file": "b.cpp", "command": "clang++ -DFOO=1 'b.cpp'"}
	]`
	writeCCDB(t, dir, body)

	cfg := config.Default()
	cfg.CompileCommandsPath = filepath.Join(dir, "compile_commands.json")
	db := New(dir, cfg)
	require.NoError(t, db.Load())

	argv, ok := db.ArgsFor(filepath.Join(dir, "a.cpp"))
	require.True(t, ok)
	assert.Equal(t, []string{"clang++", "-std=c++20", "a.cpp"}, argv)

	argv, ok = db.ArgsFor(filepath.Join(dir, "b.cpp"))
	require.True(t, ok)
	assert.Equal(t, []string{"clang++", "-DFOO=1", "b.cpp"}, argv)

	_, ok = db.ArgsFor(filepath.Join(dir, "missing.cpp"))
	assert.False(t, ok)
}

func TestArgsForWithFallback(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.CompileCommandsPath = filepath.Join(dir, "compile_commands.json")
	db := New(dir, cfg)
	require.NoError(t, db.Load()) // missing file: disabled mode

	argv := db.ArgsForWithFallback(filepath.Join(dir, "anything.cpp"))
	assert.Contains(t, argv, "-std=c++17")
}

func TestMalformedJSONKeepsPreviousCache(t *testing.T) {
	dir := t.TempDir()
	writeCCDB(t, dir, `[{"directory": "`+dir+`", "file": "a.cpp", "arguments": ["clang++"]}]`)

	cfg := config.Default()
	cfg.CompileCommandsPath = filepath.Join(dir, "compile_commands.json")
	db := New(dir, cfg)
	require.NoError(t, db.Load())
	_, ok := db.ArgsFor(filepath.Join(dir, "a.cpp"))
	require.True(t, ok)

	writeCCDB(t, dir, `not json`)
	err := db.Load()
	require.Error(t, err)

	_, ok = db.ArgsFor(filepath.Join(dir, "a.cpp"))
	assert.True(t, ok, "previous cache retained after a failed reload")
}

func TestRefreshIfModifiedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeCCDB(t, dir, `[{"directory": "`+dir+`", "file": "a.cpp", "arguments": ["clang++"]}]`)

	cfg := config.Default()
	cfg.CompileCommandsPath = filepath.Join(dir, "compile_commands.json")
	db := New(dir, cfg)
	require.NoError(t, db.Load())

	require.NoError(t, db.RefreshIfModified())
	require.NoError(t, db.RefreshIfModified())

	future := time.Now().Add(time.Hour)
	writeCCDB(t, dir, `[{"directory": "`+dir+`", "file": "b.cpp", "arguments": ["clang++"]}]`)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "compile_commands.json"), future, future))

	require.NoError(t, db.RefreshIfModified())
	_, ok := db.ArgsFor(filepath.Join(dir, "b.cpp"))
	assert.True(t, ok)
}

func TestShouldProcess(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.CompileCommandsPath = filepath.Join(dir, "compile_commands.json")
	db := New(dir, cfg)
	require.NoError(t, db.Load())

	assert.True(t, db.ShouldProcess("foo.hpp"))
	assert.False(t, db.ShouldProcess("foo.py"))
}
