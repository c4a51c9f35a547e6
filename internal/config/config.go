// Package config holds the recognized configuration surface (§6.3) and its
// three sources, in precedence order: environment variable, project
// `.cxxindex.toml` file, built-in default — mirroring the teacher's
// config-merge style of letting a file supply the bulk and point values
// override it.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// DiagnosticLevel is the verbosity of structured logging.
type DiagnosticLevel string

const (
	DiagnosticDebug DiagnosticLevel = "debug"
	DiagnosticInfo  DiagnosticLevel = "info"
	DiagnosticWarn  DiagnosticLevel = "warn"
	DiagnosticError DiagnosticLevel = "error"
)

// CompileArg is one entry of a fallback compiler-argument list, kept
// structured (rather than a bare string) in the project file. A non-empty
// fallback_compile_args list in the project file replaces the default
// list as a whole; entries are not merged one by one.
type CompileArg struct {
	Flag string `toml:"flag"`
}

// Config is the fully resolved configuration for one project.
type Config struct {
	CompileCommandsPath    string       `toml:"compile_commands_path"`
	SupportedExtensions    []string     `toml:"supported_extensions"`
	DependencyRoots        []string     `toml:"dependency_roots"`
	WorkerCount            int          `toml:"worker_count"`
	WorkerMaxTasksPerChild int          `toml:"worker_max_tasks_per_child"`
	WorkerFileTimeoutS     int          `toml:"worker_file_timeout_s"`
	CancellationJoinDeadlineS int       `toml:"cancellation_join_deadline_s"`
	CacheRoot              string       `toml:"cache_root"`
	IncludeDependencies    bool         `toml:"include_dependencies"`
	FallbackCompileArgs    []CompileArg `toml:"fallback_compile_args"`
	DiagnosticLevel        DiagnosticLevel `toml:"diagnostic_level"`
	SearchResultCeiling    int          `toml:"search_result_ceiling"`
	MaxTraversalDepth      int          `toml:"max_traversal_depth"`
}

// Default extensions recognized by the file scanner independent of the
// compile database.
var defaultExtensions = []string{".cpp", ".cc", ".cxx", ".c++", ".h", ".hpp", ".hxx", ".h++"}

var defaultFallbackArgs = []CompileArg{
	{Flag: "-std=c++17"},
	{Flag: "-x"},
	{Flag: "c++"},
	{Flag: "-Wno-pragma-once-outside-header"},
}

// Default builds the built-in default configuration per §6.3.
func Default() Config {
	return Config{
		CompileCommandsPath:       "compile_commands.json",
		SupportedExtensions:       append([]string(nil), defaultExtensions...),
		DependencyRoots:           []string{"vcpkg_installed"},
		WorkerCount:               defaultWorkerCount(),
		WorkerMaxTasksPerChild:    10,
		WorkerFileTimeoutS:        120,
		CancellationJoinDeadlineS: 5,
		CacheRoot:                 defaultCacheRoot(),
		IncludeDependencies:       false,
		FallbackCompileArgs:       append([]CompileArg(nil), defaultFallbackArgs...),
		DiagnosticLevel:           DiagnosticInfo,
		SearchResultCeiling:       10000,
		MaxTraversalDepth:         64,
	}
}

func defaultWorkerCount() int {
	n := runtime.NumCPU() * 2
	if n > 16 {
		n = 16
	}
	if n < 1 {
		n = 1
	}
	return n
}

func defaultCacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cxxindex")
	}
	return filepath.Join(os.TempDir(), "cxxindex")
}

// Load resolves a Config for the given project root: defaults, then a
// `.cxxindex.toml` file in the project root if present, then environment
// variable overrides.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	tomlPath := filepath.Join(projectRoot, ".cxxindex.toml")
	if data, err := os.ReadFile(tomlPath); err == nil {
		var fileCfg Config
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, errors.Wrapf(err, "parsing %s", tomlPath)
		}
		mergeNonZero(&cfg, fileCfg)
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "reading %s", tomlPath)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// mergeNonZero overlays any non-zero-value field of override onto base.
func mergeNonZero(base *Config, override Config) {
	if override.CompileCommandsPath != "" {
		base.CompileCommandsPath = override.CompileCommandsPath
	}
	if len(override.SupportedExtensions) > 0 {
		base.SupportedExtensions = override.SupportedExtensions
	}
	if len(override.DependencyRoots) > 0 {
		base.DependencyRoots = override.DependencyRoots
	}
	if override.WorkerCount > 0 {
		base.WorkerCount = override.WorkerCount
	}
	if override.WorkerMaxTasksPerChild > 0 {
		base.WorkerMaxTasksPerChild = override.WorkerMaxTasksPerChild
	}
	if override.WorkerFileTimeoutS > 0 {
		base.WorkerFileTimeoutS = override.WorkerFileTimeoutS
	}
	if override.CancellationJoinDeadlineS > 0 {
		base.CancellationJoinDeadlineS = override.CancellationJoinDeadlineS
	}
	if override.CacheRoot != "" {
		base.CacheRoot = override.CacheRoot
	}
	if override.IncludeDependencies {
		base.IncludeDependencies = true
	}
	if len(override.FallbackCompileArgs) > 0 {
		base.FallbackCompileArgs = override.FallbackCompileArgs
	}
	if override.DiagnosticLevel != "" {
		base.DiagnosticLevel = override.DiagnosticLevel
	}
	if override.SearchResultCeiling > 0 {
		base.SearchResultCeiling = override.SearchResultCeiling
	}
	if override.MaxTraversalDepth > 0 {
		base.MaxTraversalDepth = override.MaxTraversalDepth
	}
}

// Environment variables recognized per §6.4.
const (
	EnvDiagnosticLevel  = "CXXINDEX_DIAGNOSTIC_LEVEL"
	EnvParserLibPath    = "CXXINDEX_LIBCLANG_PATH"
	EnvParserSearchTool = "CXXINDEX_LIBCLANG_DISCOVERY_TOOL"
	EnvBackendMode      = "CXXINDEX_BACKEND_MODE"
	EnvWorkerCount      = "CXXINDEX_WORKER_COUNT"
)

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDiagnosticLevel); v != "" {
		cfg.DiagnosticLevel = DiagnosticLevel(strings.ToLower(v))
	}
	if v := os.Getenv(EnvWorkerCount); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorkerCount = n
		}
	}
}

// FlattenFallbackArgs converts the structured fallback arg list into the
// flat argv the parser worker expects.
func (c Config) FlattenFallbackArgs() []string {
	out := make([]string, 0, len(c.FallbackCompileArgs))
	for _, a := range c.FallbackCompileArgs {
		out = append(out, a.Flag)
	}
	return out
}

// BackendMode reads the development-mode backend override, used by tests
// and by operators forcing a schema recreation path.
func BackendMode() string {
	return os.Getenv(EnvBackendMode)
}
