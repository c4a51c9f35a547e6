package coordinator

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cxxindex/cxxindex/internal/config"
	"github.com/cxxindex/cxxindex/internal/parser"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// Result is what one completed job reports back to the coordinator.
type Result struct {
	File string
	Rec  symbols.FileRecord
	Err  error
}

// Pool is the bounded-concurrency process pool described in §4.6/§9: an
// errgroup of persistent worker goroutines, each holding one self-reexec
// child process it recycles every WorkerMaxTasksPerChild files, gated by a
// semaphore sized to WorkerCount so job submission backpressures rather
// than unboundedly queuing.
type Pool struct {
	cfg     config.Config
	selfExe string
}

// NewPool resolves the running binary's own path (via os.Executable) so
// worker processes can be spawned as `<self> __parse-one`.
func NewPool(cfg config.Config) (*Pool, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &Pool{cfg: cfg, selfExe: exe}, nil
}

// Run dispatches jobs across WorkerCount persistent worker goroutines and
// calls onResult for each completed job. It returns when every job has
// been dispatched and every worker has exited — on context cancellation,
// in-flight workers finish their current job, then stop (the coordinator
// is expected to have already applied the bounded join deadline via each
// workerProc.close call).
func (p *Pool) Run(ctx context.Context, jobs []parser.Request, onResult func(Result)) error {
	if len(jobs) == 0 {
		return nil
	}

	joinDeadline := time.Duration(p.cfg.CancellationJoinDeadlineS) * time.Second
	jobCh := make(chan parser.Request)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	sem := semaphore.NewWeighted(int64(p.cfg.WorkerCount))
	for i := 0; i < p.cfg.WorkerCount; i++ {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return p.workerLoop(gctx, jobCh, joinDeadline, onResult)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func (p *Pool) workerLoop(ctx context.Context, jobs <-chan parser.Request, joinDeadline time.Duration, onResult func(Result)) error {
	var proc *workerProc
	defer func() {
		if proc != nil {
			_ = proc.close(joinDeadline)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-jobs:
			if !ok {
				return nil
			}

			if proc == nil {
				started, err := startWorkerProc(p.selfExe, joinDeadline)
				if err != nil {
					onResult(Result{File: req.File, Err: err})
					continue
				}
				proc = started
			}

			rec, err := proc.handle(req)
			onResult(Result{File: req.File, Rec: rec, Err: err})

			proc.tasksHandled++
			if proc.tasksHandled >= p.cfg.WorkerMaxTasksPerChild {
				_ = proc.close(joinDeadline)
				proc = nil
			}
		}
	}
}
