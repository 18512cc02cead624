package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"cookbatch/internal/checkout"
	"cookbatch/internal/extract"
	"cookbatch/internal/source"
)

// Materializer obtains a local checkout of one repository.
type Materializer interface {
	Materialize(ctx context.Context, url, branch string) (checkout.Checkout, error)
}

// Dispatcher processes one cookbook root, producing a per-cookbook result.
type Dispatcher interface {
	Dispatch(ctx context.Context, root, rel, outFile string) extract.Result
}

// Worker drives the full pipeline for a single repository: materialize,
// discover cookbook roots, dispatch each one. It is self-contained and
// retryable by rerunning the whole batch.
type Worker struct {
	Materializer Materializer
	Dispatcher   Dispatcher

	// DiscoverRoots returns cookbook roots relative to a checkout directory.
	DiscoverRoots func(dir string) ([]string, error)

	// OutDir is the root of the canonical output tree.
	OutDir string
}

// Process turns one repository into exactly one Outcome. Failures at any
// stage are absorbed into the outcome; a panic anywhere in the pipeline is
// converted to a fatal_error outcome at this boundary so it can never reach
// the concurrency layer.
func (w *Worker) Process(ctx context.Context, ref source.Ref) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Repo:   ref.URL,
				Status: StatusFatalError,
				Error:  fmt.Sprintf("panic: %v", r),
				Secs:   secsSince(start),
			}
		}
	}()

	co, err := w.Materializer.Materialize(ctx, ref.URL, ref.Branch)
	if err != nil {
		return Outcome{
			Repo:   ref.URL,
			Status: StatusCloneError,
			Error:  err.Error(),
			Secs:   secsSince(start),
		}
	}

	roots, err := w.DiscoverRoots(co.Dir)
	if err != nil {
		return Outcome{
			Repo:   ref.URL,
			Status: StatusFatalError,
			Commit: co.Commit,
			Error:  fmt.Sprintf("cookbook discovery failed: %v", err),
			Secs:   secsSince(start),
		}
	}
	if len(roots) == 0 {
		// A legitimate terminal outcome, not an error: the commit is still
		// recorded for traceability.
		return Outcome{
			Repo:   ref.URL,
			Status: StatusNoCookbooks,
			Commit: co.Commit,
			Secs:   secsSince(start),
		}
	}

	repoOut := filepath.Join(w.OutDir, filepath.FromSlash(checkout.SanitizePath(ref.URL)), co.Commit)
	results := make([]extract.Result, 0, len(roots))
	for _, rel := range roots {
		root := filepath.Join(co.Dir, filepath.FromSlash(rel))
		outFile := filepath.Join(repoOut, filepath.FromSlash(rel)+".json")
		// One cookbook's failure never stops dispatch of its siblings.
		results = append(results, w.Dispatcher.Dispatch(ctx, root, rel, outFile))
	}

	return Outcome{
		Repo:      ref.URL,
		Status:    StatusDone,
		Commit:    co.Commit,
		Cookbooks: results,
		Secs:      secsSince(start),
	}
}
