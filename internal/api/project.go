package api

import (
	"context"
	"encoding/json"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/coordinator"
	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/query"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// SetProjectDirectoryParams are the set_project_directory arguments: a
// project root and an optional partial config overriding the resolved
// §6.3 defaults for this project only.
type SetProjectDirectoryParams struct {
	Path   string          `json:"path"`
	Config json.RawMessage `json:"config,omitempty"`
}

// SetProjectDirectoryResult reports the state set_project_directory left
// the coordinator in. A fresh project (empty cache) transitions to
// indexing asynchronously; the caller polls get_indexing_status.
type SetProjectDirectoryResult struct {
	State symbols.AnalyzerState `json:"state"`
}

func handleSetProjectDirectory(s *Server, raw json.RawMessage) (any, error) {
	var p SetProjectDirectoryParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, diagnostics.New(diagnostics.QueryError, "set_project_directory requires path")
	}

	cfg, err := config.Load(p.Path)
	if err != nil {
		return nil, err
	}
	if len(p.Config) > 0 {
		if err := json.Unmarshal(p.Config, &cfg); err != nil {
			return nil, diagnostics.Wrap(diagnostics.QueryError, err, "decoding config override")
		}
	}

	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()

	if err := coord.SetProject(p.Path, cfg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.eng = query.New(coord.Store(), coord.Index(), cfg, coord)
	s.projectSet = true
	s.mu.Unlock()

	if coord.State() == symbols.StateUninitialized {
		go func() { _ = coord.IndexAll(context.Background(), false) }()
	}

	return SetProjectDirectoryResult{State: coord.State()}, nil
}

// GetIndexingStatusResult is the get_indexing_status response: current
// state plus the latest run's progress snapshot.
type GetIndexingStatusResult struct {
	State    symbols.AnalyzerState `json:"state"`
	Progress symbols.Progress      `json:"progress"`
}

func handleGetIndexingStatus(s *Server, raw json.RawMessage) (any, error) {
	coord, err := s.requireCoordinator()
	if err != nil {
		return nil, err
	}
	return GetIndexingStatusResult{State: coord.State(), Progress: coord.Progress()}, nil
}

// RefreshProjectParams are the refresh_project arguments.
type RefreshProjectParams struct {
	Force bool `json:"force,omitempty"`
}

// RefreshProjectResult reports the state the coordinator was left in.
type RefreshProjectResult struct {
	State symbols.AnalyzerState `json:"state"`
}

func handleRefreshProject(s *Server, raw json.RawMessage) (any, error) {
	var p RefreshProjectParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	coord, err := s.requireCoordinator()
	if err != nil {
		return nil, err
	}

	var runErr error
	if p.Force {
		runErr = coord.IndexAll(context.Background(), true)
	} else {
		runErr = coord.Refresh(context.Background())
	}
	if runErr != nil {
		return nil, runErr
	}
	return RefreshProjectResult{State: coord.State()}, nil
}

// requireCoordinator returns the Server's coordinator, erroring with a
// QueryError (not a panic) when set_project_directory hasn't run yet —
// every operation other than set_project_directory depends on it.
func (s *Server) requireCoordinator() (*coordinator.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.projectSet {
		return nil, diagnostics.New(diagnostics.QueryError, "no project set: call set_project_directory first")
	}
	return s.coord, nil
}

// requireEngine returns the Server's query engine, erroring when
// set_project_directory hasn't run yet. The engine exists as soon as a
// project is set, even while its first index is still running.
func (s *Server) requireEngine() (*query.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.eng == nil {
		return nil, diagnostics.New(diagnostics.QueryError, "no project indexed: call set_project_directory first")
	}
	return s.eng, nil
}
