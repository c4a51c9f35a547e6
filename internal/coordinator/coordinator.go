// Package coordinator owns the indexing lifecycle: the analyzer state
// machine, the incremental hash-based cache-hit decision, dispatch of
// parse jobs across the self-reexec process pool, and the header-claim
// bookkeeping that keeps a shared header from being re-extracted by every
// translation unit that includes it.
package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/cxxindex/cxxindex/internal/ccdb"
	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/fingerprint"
	"github.com/cxxindex/cxxindex/internal/memindex"
	"github.com/cxxindex/cxxindex/internal/parser"
	"github.com/cxxindex/cxxindex/internal/query"
	"github.com/cxxindex/cxxindex/internal/scanner"
	"github.com/cxxindex/cxxindex/internal/store"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// flushBatchSize is how many completed files accumulate before their
// records are flushed to the Store and the in-memory index in one batch,
// rather than one Store transaction per file.
const flushBatchSize = 25

// Coordinator drives one project's index: uninitialized until SetProject,
// then loading_cache, then ready_from_cache or indexing, per the
// analyzer-state machine.
type Coordinator struct {
	mu sync.RWMutex

	projectRoot string
	cfg         config.Config
	store       *store.Store
	index       *memindex.Index
	ccdb        *ccdb.CCDB
	scanner     *scanner.Scanner
	pool        *Pool
	metrics     *metrics

	state   symbols.AnalyzerState
	stateMu sync.RWMutex

	progress   symbols.Progress
	progressMu sync.RWMutex

	cancelRequested atomic.Bool
	runCounter      atomic.Uint64

	headerClaims sync.Map // header path -> claiming source file
}

// New builds an uninitialized Coordinator. Call SetProject before any
// other method.
func New() *Coordinator {
	return &Coordinator{state: symbols.StateUninitialized, metrics: newMetrics()}
}

// State returns the coordinator's current analyzer state.
func (c *Coordinator) State() symbols.AnalyzerState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(s symbols.AnalyzerState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Progress returns a snapshot of the current (or most recent) run.
func (c *Coordinator) Progress() symbols.Progress {
	c.progressMu.RLock()
	defer c.progressMu.RUnlock()
	return c.progress
}

// CallStatistics returns the lifetime prometheus counters for get_stats /
// get_call_statistics, satisfying query.RunStatsProvider.
func (c *Coordinator) CallStatistics() query.RunStats {
	return c.metrics.snapshot()
}

// Cancel requests that an in-flight IndexAll/Refresh stop dispatching new
// jobs and begin the bounded-deadline shutdown of any workers still
// holding a child process. It is cooperative: the call returns
// immediately, the run itself observes the flag between batches.
func (c *Coordinator) Cancel() {
	c.cancelRequested.Store(true)
}

// SetProject resolves the project's cache directory from its fingerprint,
// opens (or creates) the Store, loads the full symbol set into the
// memindex.Index, and readies the compile database and file scanner. On
// return the Coordinator is in ready_from_cache when the cache holds any
// symbols, and uninitialized when it holds none. File hashes are not
// compared here, so a cache with stale entries still reports
// ready_from_cache; stale files are found by the next IndexAll/Refresh.
func (c *Coordinator) SetProject(projectRoot string, cfg config.Config) error {
	c.setState(symbols.StateLoadingCache)

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		c.setState(symbols.StateError)
		return diagnostics.Wrap(diagnostics.ConfigError, err, "resolving project root %s", projectRoot)
	}

	cacheDir := fingerprint.CacheDir(cfg.CacheRoot, absRoot)
	st, err := store.Open(cacheDir)
	if err != nil {
		c.setState(symbols.StateError)
		return err
	}

	cdb := ccdb.New(absRoot, cfg)
	if err := cdb.Load(); err != nil {
		c.setState(symbols.StateError)
		return err
	}

	pool, err := NewPool(cfg)
	if err != nil {
		c.setState(symbols.StateError)
		return diagnostics.Wrap(diagnostics.Fatal, err, "constructing worker pool")
	}

	idx := memindex.New()
	allSymbols, err := st.AllSymbols()
	if err != nil {
		c.setState(symbols.StateError)
		return err
	}
	allAliases, err := st.AllTypeAliases()
	if err != nil {
		c.setState(symbols.StateError)
		return err
	}
	allCallSites, err := st.AllCallSites()
	if err != nil {
		c.setState(symbols.StateError)
		return err
	}
	idx.LoadAll(allSymbols, allAliases, allCallSites)

	c.mu.Lock()
	c.projectRoot = absRoot
	c.cfg = cfg
	c.store = st
	c.index = idx
	c.ccdb = cdb
	c.scanner = scanner.New(absRoot, ".cxxindex-cache", cfg)
	c.pool = pool
	c.mu.Unlock()

	if err := st.SetMetadata("include_dependencies", boolString(cfg.IncludeDependencies)); err != nil {
		return err
	}

	if idx.SymbolCount() > 0 {
		c.setState(symbols.StateReadyFromCache)
	} else {
		c.setState(symbols.StateUninitialized)
	}
	return nil
}

// Index returns the live in-memory index for read-only query access.
func (c *Coordinator) Index() *memindex.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Store returns the underlying cache store for read-only query access.
func (c *Coordinator) Store() *store.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// IndexAll performs a full scan of the project, parsing every file whose
// content hash or compile-args hash no longer matches the cache (or
// every file, if force is true), and returns once the run completes, is
// cancelled, or fails outright.
func (c *Coordinator) IndexAll(ctx context.Context, force bool) error {
	return c.run(ctx, force, nil)
}

// Refresh recomputes hashes for the current file set, deletes cache rows
// for files that no longer exist on disk, and reparses whatever IndexAll
// would have reparsed for the remainder — the incremental re-entry point
// used by the watch loop and by an explicit refresh command.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.run(ctx, false, c.pruneDeletedFiles)
}

// pruneDeletedFiles removes Store and in-memory rows for any file the
// scanner no longer finds on disk but the cache still carries metadata
// for.
func (c *Coordinator) pruneDeletedFiles(ctx context.Context, present map[string]struct{}) error {
	c.mu.RLock()
	st := c.store
	idx := c.index
	c.mu.RUnlock()

	known, err := st.AllSymbols()
	if err != nil {
		return err
	}
	seenFiles := map[string]struct{}{}
	for _, s := range known {
		seenFiles[s.File] = struct{}{}
	}
	for f := range seenFiles {
		if _, ok := present[f]; ok {
			continue
		}
		if err := st.DeleteFile(ctx, f); err != nil {
			return err
		}
		idx.RemoveFile(f)
	}
	return nil
}

// run is the shared body of IndexAll and Refresh: scan, decide cache
// hit/miss per file, dispatch misses through the pool, flush results in
// batches, and update progress/metrics throughout.
func (c *Coordinator) run(ctx context.Context, force bool, pre func(context.Context, map[string]struct{}) error) error {
	defer c.cancelRequested.Store(false)
	c.setState(symbols.StateIndexing)

	c.mu.RLock()
	sc := c.scanner
	cdb := c.ccdb
	cfg := c.cfg
	st := c.store
	idx := c.index
	pool := c.pool
	c.mu.RUnlock()

	files, err := sc.Scan()
	if err != nil {
		c.setState(symbols.StateError)
		return diagnostics.Wrap(diagnostics.ConfigError, err, "scanning project tree")
	}
	if err := cdb.RefreshIfModified(); err != nil {
		c.setState(symbols.StateError)
		return err
	}

	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.Path] = struct{}{}
	}
	if pre != nil {
		if err := pre(ctx, present); err != nil {
			c.setState(symbols.StateError)
			return err
		}
	}

	runToken := c.runCounter.Add(1)
	startTime := runStartTime(runToken)
	c.setProgress(symbols.Progress{TotalFiles: len(files), StartTime: startTime, RunID: fmt.Sprintf("%d", runToken)})

	if c.cancelRequested.Load() {
		c.setState(symbols.StateReadyFromCache)
		return diagnostics.New(diagnostics.Cancelled, "indexing run cancelled before dispatch")
	}

	jobs := make([]parser.Request, 0, len(files))
	for _, f := range files {
		if !force && !cdb.ShouldProcess(f.Path) && !hasSupportedExtension(f.Path, cfg.SupportedExtensions) {
			continue
		}
		if !cfg.IncludeDependencies && !f.IsProject {
			continue
		}

		argv := cdb.ArgsForWithFallback(f.Path)
		argsHash := fingerprint.CompileArgs(argv)
		contentHash, err := fingerprint.FileContent(f.Path)
		if err != nil {
			continue // vanished between scan and dispatch; next run picks it up
		}

		if !force {
			if meta, ok, err := st.FileMetadataFor(f.Path); err == nil && ok {
				if meta.Hash == contentHash && meta.CompileArgsHash == argsHash {
					c.metrics.cacheHits.Inc()
					c.bumpProgress(func(p *symbols.Progress) { p.CacheHits++ })
					continue
				}
			}
		}

		jobs = append(jobs, parser.Request{
			File:            f.Path,
			Argv:            argv,
			IsProject:       f.IsProject,
			CompileArgsHash: argsHash,
			ClaimedHeaders:  c.snapshotHeaderClaims(),
		})
	}

	var flushMu sync.Mutex
	pending := make([]pendingFlush, 0, flushBatchSize)

	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	onResult := func(res Result) {
		if c.cancelRequested.Load() {
			stopDispatch()
		}
		if res.Err != nil {
			c.metrics.failedFiles.Inc()
			c.bumpProgress(func(p *symbols.Progress) { p.FailedFiles++; p.CurrentFile = res.File })
			return
		}

		contentHash, _ := fingerprint.FileContent(res.File)
		var argsHash string
		for _, j := range jobs {
			if j.File == res.File {
				argsHash = j.CompileArgsHash
				break
			}
		}

		meta := symbols.FileMetadata{
			Path:            res.File,
			Hash:            contentHash,
			CompileArgsHash: argsHash,
			IndexedAt:       startTime,
			SymbolCount:     len(res.Rec.Symbols),
		}

		c.recordHeaderClaims(res.File, res.Rec)

		flushMu.Lock()
		pending = append(pending, pendingFlush{rec: res.Rec, meta: meta})
		shouldFlush := len(pending) >= flushBatchSize
		var batch []pendingFlush
		if shouldFlush {
			batch = pending
			pending = nil
		}
		flushMu.Unlock()

		if shouldFlush {
			c.flushBatch(ctx, st, idx, batch)
		}

		c.metrics.indexedFiles.Inc()
		c.bumpProgress(func(p *symbols.Progress) { p.IndexedFiles++; p.CurrentFile = res.File })
	}

	runErr := pool.Run(dispatchCtx, jobs, onResult)

	flushMu.Lock()
	remaining := pending
	pending = nil
	flushMu.Unlock()
	if len(remaining) > 0 {
		c.flushBatch(ctx, st, idx, remaining)
	}

	if runErr != nil {
		c.setState(symbols.StateError)
		return runErr
	}
	if c.cancelRequested.Load() {
		c.setState(symbols.StateReadyFromCache)
		return diagnostics.New(diagnostics.Cancelled, "indexing run cancelled")
	}

	if err := st.SetMetadata("indexed_file_count", fmt.Sprintf("%d", idx.SymbolCount())); err != nil {
		return err
	}
	c.setState(symbols.StateIndexed)
	return nil
}

type pendingFlush struct {
	rec  symbols.FileRecord
	meta symbols.FileMetadata
}

func (c *Coordinator) flushBatch(ctx context.Context, st *store.Store, idx *memindex.Index, batch []pendingFlush) {
	for _, item := range batch {
		if err := st.UpdateFileSymbols(ctx, item.rec, item.meta); err != nil {
			continue // best-effort: a write failure here surfaces on the next health check
		}
		idx.UpsertFile(item.rec.File, item.rec)
	}
}

// recordHeaderClaims inspects a completed FileRecord for symbols
// attributed to a file other than the one just parsed (i.e.
// pulled in from an included header) and claims each such header for
// the parsed file, so a later translation unit sharing the same
// compile-args hash can skip re-walking it.
func (c *Coordinator) recordHeaderClaims(sourceFile string, rec symbols.FileRecord) {
	claimed := map[string]struct{}{}
	for _, s := range rec.Symbols {
		if s.File != "" && s.File != sourceFile {
			claimed[s.File] = struct{}{}
		}
	}
	for header := range claimed {
		c.headerClaims.Store(header, sourceFile)
	}
}

func (c *Coordinator) snapshotHeaderClaims() map[string]string {
	snap := map[string]string{}
	c.headerClaims.Range(func(k, v any) bool {
		snap[k.(string)] = v.(string)
		return true
	})
	if len(snap) == 0 {
		return nil
	}
	return snap
}

func (c *Coordinator) setProgress(p symbols.Progress) {
	c.progressMu.Lock()
	c.progress = p
	c.progressMu.Unlock()
}

func (c *Coordinator) bumpProgress(mutate func(*symbols.Progress)) {
	c.progressMu.Lock()
	mutate(&c.progress)
	c.progressMu.Unlock()
}

func hasSupportedExtension(path string, exts []string) bool {
	for _, e := range exts {
		if len(path) >= len(e) && path[len(path)-len(e):] == e {
			return true
		}
	}
	return false
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// runStartTime derives an opaque token for a run's progress.StartTime
// from the run counter rather than wall-clock time. Tokens of different
// runs of the same process differ, but hashing does not preserve the
// counter's order, so they support equality comparison only.
func runStartTime(runToken uint64) int64 {
	h := xxhash.New()
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(runToken >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
