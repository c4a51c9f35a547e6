package coordinator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/parser"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// ParseOneVerb is the hidden cobra subcommand the self-reexec worker
// process runs under: `<binary> __parse-one`. cmd/cxxindex registers a
// command with this name that reads ipcRequest lines from stdin and
// writes ipcResponse lines to stdout, using the `clang`-gated
// parser.Parser exactly as the coordinator would in-process.
const ParseOneVerb = "__parse-one"

type ipcRequest struct {
	Req parser.Request `json:"req"`
}

type ipcResponse struct {
	Record symbols.FileRecord `json:"record"`
	Err    string             `json:"err,omitempty"`
}

// workerProc is one long-lived child process handling a bounded number of
// files before recycling, per the spec's per-task lifecycle bound.
type workerProc struct {
	cmd          *exec.Cmd
	stdin        io.WriteCloser
	enc          *json.Encoder
	scanner      *bufio.Scanner
	tasksHandled int
}

func startWorkerProc(selfExe string, joinDeadline time.Duration) (*workerProc, error) {
	cmd := exec.Command(selfExe, ParseOneVerb)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.Fatal, err, "opening worker stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.Fatal, err, "opening worker stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, diagnostics.Wrap(diagnostics.Fatal, err, "spawning worker process")
	}

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // a raw comment or large FileRecord can exceed the default 64KiB token

	return &workerProc{cmd: cmd, stdin: stdin, enc: json.NewEncoder(stdin), scanner: sc}, nil
}

// handle sends one request and blocks for its response line. The worker
// process handles one request at a time (no pipelining), matching the
// "workers return records to the coordinator" synchronous contract.
func (w *workerProc) handle(req parser.Request) (symbols.FileRecord, error) {
	if err := w.enc.Encode(ipcRequest{Req: req}); err != nil {
		return symbols.FileRecord{}, diagnostics.Wrap(diagnostics.Fatal, err, "writing worker request for %s", req.File)
	}

	if !w.scanner.Scan() {
		if err := w.scanner.Err(); err != nil {
			return symbols.FileRecord{}, diagnostics.Wrap(diagnostics.Fatal, err, "reading worker response for %s", req.File)
		}
		return symbols.FileRecord{}, diagnostics.New(diagnostics.Fatal, "worker process closed its output reading %s", req.File)
	}

	var resp ipcResponse
	if err := json.Unmarshal(w.scanner.Bytes(), &resp); err != nil {
		return symbols.FileRecord{}, diagnostics.Wrap(diagnostics.Fatal, err, "decoding worker response for %s", req.File)
	}
	if resp.Err != "" {
		return resp.Record, fmt.Errorf("%s", resp.Err)
	}
	return resp.Record, nil
}

// close signals the worker to exit by closing its stdin, then waits up to
// joinDeadline before killing it — the cancellation model's bounded join.
func (w *workerProc) close(joinDeadline time.Duration) error {
	_ = w.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- w.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(joinDeadline):
		_ = w.cmd.Process.Kill()
		<-done
		return diagnostics.New(diagnostics.Cancelled, "worker process killed after exceeding %s join deadline", joinDeadline)
	}
}

// RunParseOneLoop is the child-process side of the IPC protocol: read one
// ipcRequest per line from r, parse it, write one ipcResponse per line to
// w, until r is closed. cmd/cxxindex's hidden `__parse-one` command calls
// this directly; it is exported here (rather than living in cmd/) so a
// test can exercise the protocol without a real subprocess.
func RunParseOneLoop(ctx context.Context, r io.Reader, w io.Writer, p parser.Parser) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(w)

	for sc.Scan() {
		var req ipcRequest
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
			return diagnostics.Wrap(diagnostics.Fatal, err, "decoding worker request")
		}

		rec, err := p.Parse(ctx, req.Req)
		resp := ipcResponse{Record: rec}
		if err != nil {
			resp.Err = err.Error()
		}
		if err := enc.Encode(resp); err != nil {
			return diagnostics.Wrap(diagnostics.Fatal, err, "writing worker response")
		}
	}
	return sc.Err()
}
