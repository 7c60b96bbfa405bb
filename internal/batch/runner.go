// Package batch implements the bounded-concurrency file analysis runner: it
// fans parsing and ownership-scoped graph writes out across a worker pool,
// retries transient I/O errors with backoff, and degrades a single file's
// parse failure into a report entry instead of aborting the run.
package batch

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/codeatlas/engine/internal/graph"
	"golang.org/x/sync/errgroup"
)

// FileTask describes one file to analyze. Path is the project-relative path
// used to build node identifiers; AbsPath is where the file is actually
// read from on disk.
type FileTask struct {
	Path     string
	AbsPath  string
	Language graph.Language
}

// Apply is called once per successfully parsed file, under the caller's
// chosen ownership scope, to persist the parse result into a graph store.
type Apply func(ctx context.Context, task FileTask, result *graph.ParseResult) error

// Runner analyzes a set of files with bounded concurrency, per-file
// timeouts, and retry-with-backoff for transient I/O errors. A single
// file's parse or apply failure is recorded in the Report and does not
// cancel sibling work; only a fatal error kind (schema/registry violations)
// or an externally cancelled context stops the run early.
type Runner struct {
	parser      graph.Parser
	apply       Apply
	concurrency int
	timeout     time.Duration
	retryCount  int
	onProgress  func(ProgressEvent)
}

// NewRunner creates a Runner. concurrency <= 0 defaults to 4; retryCount <
// 0 defaults to 0 (no retry); timeout <= 0 disables the per-file deadline.
func NewRunner(parser graph.Parser, apply Apply, concurrency int, timeout time.Duration, retryCount int, onProgress func(ProgressEvent)) *Runner {
	if concurrency <= 0 {
		concurrency = 4
	}
	if retryCount < 0 {
		retryCount = 0
	}
	return &Runner{
		parser:      parser,
		apply:       apply,
		concurrency: concurrency,
		timeout:     timeout,
		retryCount:  retryCount,
		onProgress:  onProgress,
	}
}

// Run analyzes every task, bounded to r.concurrency concurrent workers. It
// returns a Report regardless of per-file failures; the returned error is
// non-nil only for a fatal error (schema/registry violation surfaced by
// apply) or context cancellation, in which case Report.Cancelled is set when
// ctx.Err() is context.Canceled or context.DeadlineExceeded.
func (r *Runner) Run(ctx context.Context, tasks []FileTask) (*Report, error) {
	report := &Report{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	results := make(chan FailedFile, len(tasks))
	successes := make(chan string, len(tasks))
	var fatal error

	for _, task := range tasks {
		task := task
		r.emit(ProgressEvent{File: task.Path, Status: ProgressPending})

		g.Go(func() error {
			r.emit(ProgressEvent{File: task.Path, Status: ProgressWorking})

			err := r.analyzeOne(gctx, task)
			if err == nil {
				successes <- task.Path
				r.emit(ProgressEvent{File: task.Path, Status: ProgressComplete})
				return nil
			}

			var gerr *graph.Error
			if errors.As(err, &gerr) && isFatalKind(gerr.Kind) {
				fatal = err
				r.emit(ProgressEvent{File: task.Path, Status: ProgressFailed, Message: err.Error()})
				return err // cancels sibling workers via gctx
			}

			kind := graph.KindParseError
			if errors.As(err, &gerr) {
				kind = gerr.Kind
			}
			results <- FailedFile{File: task.Path, ErrorKind: kind, Message: err.Error()}
			r.emit(ProgressEvent{File: task.Path, Status: ProgressFailed, Message: err.Error()})
			return nil
		})
	}

	waitErr := g.Wait()
	close(results)
	close(successes)

	for s := range successes {
		report.Successful = append(report.Successful, s)
	}
	for f := range results {
		report.Failed = append(report.Failed, f)
	}

	if waitErr != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			report.Cancelled = true
		}
		if fatal != nil {
			return report, fatal
		}
		return report, waitErr
	}

	return report, nil
}

// analyzeOne parses and applies a single file, retrying transient I/O
// failures with exponential backoff up to r.retryCount times.
func (r *Runner) analyzeOne(ctx context.Context, task FileTask) error {
	var lastErr error

	for attempt := 0; attempt <= r.retryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		taskCtx := ctx
		var cancel context.CancelFunc
		if r.timeout > 0 {
			taskCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}

		err := r.attempt(taskCtx, task)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		var gerr *graph.Error
		if !errors.As(err, &gerr) || gerr.Kind != graph.KindIO {
			return err // not transient, no point retrying
		}
	}

	return lastErr
}

func (r *Runner) attempt(ctx context.Context, task FileTask) error {
	source, err := readSource(task.AbsPath)
	if err != nil {
		return graph.NewError(graph.KindIO, "Runner.attempt", err)
	}

	result, err := r.parser.Parse(ctx, task.Path, source, task.Language)
	if err != nil {
		return err
	}

	if r.apply == nil {
		return nil
	}
	return r.apply(ctx, task, result)
}

func readSource(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func isFatalKind(k graph.Kind) bool {
	switch k {
	case graph.KindRegistryLocked, graph.KindValidationFailed, graph.KindHierarchyViolation, graph.KindUnknownEdgeType:
		return true
	default:
		return false
	}
}

func (r *Runner) emit(ev ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(ev)
	}
}
