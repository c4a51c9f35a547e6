package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "compile_commands.json", cfg.CompileCommandsPath)
	assert.Contains(t, cfg.SupportedExtensions, ".hpp")
	assert.Equal(t, []string{"vcpkg_installed"}, cfg.DependencyRoots)
	assert.False(t, cfg.IncludeDependencies)
	assert.LessOrEqual(t, cfg.WorkerCount, 16)
	assert.GreaterOrEqual(t, cfg.WorkerCount, 1)
}

func TestLoadMergesProjectFile(t *testing.T) {
	dir := t.TempDir()
	tomlBody := "worker_count = 4\ninclude_dependencies = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cxxindex.toml"), []byte(tomlBody), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.True(t, cfg.IncludeDependencies)
	// Fields untouched by the project file keep their defaults.
	assert.Equal(t, "compile_commands.json", cfg.CompileCommandsPath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	tomlBody := "worker_count = 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cxxindex.toml"), []byte(tomlBody), 0o644))

	t.Setenv(EnvWorkerCount, "7")
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.WorkerCount, "environment variable wins over project file")
}

func TestLoadNoProjectFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().CompileCommandsPath, cfg.CompileCommandsPath)
}
