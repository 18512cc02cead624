// Package runner composes the per-repository pipeline (checkout, cookbook
// discovery, extraction) under a bounded worker pool and persists every
// outcome to the JSONL logs. Per-repository failures are recorded, never
// escalated; only repository enumeration can abort a run.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	logger "github.com/sirupsen/logrus"

	"cookbatch/internal/checkout"
	"cookbatch/internal/config"
	"cookbatch/internal/discover"
	"cookbatch/internal/extract"
	"cookbatch/internal/sink"
	"cookbatch/internal/source"
)

var (
	tagErr         = color.New(color.FgRed).Sprint("ERR:")
	tagNoCookbooks = color.New(color.FgYellow).Sprint("NO-CKBK:")
	tagDone        = color.New(color.FgGreen).Sprint("DONE:")
)

// Run executes the whole batch for cfg. It returns an error only when the
// run could not execute at all (enumeration or log setup failed); individual
// repository failures are durable outcomes, not run failures.
func Run(ctx context.Context, cfg *config.Config) error {
	refs, err := source.Resolve(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve repositories: %w", err)
	}
	if cfg.Runtime.Limit > 0 && len(refs) > cfg.Runtime.Limit {
		refs = refs[:cfg.Runtime.Limit]
	}

	logs, err := sink.Open(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer logs.Close()

	worker := &Worker{
		Materializer: &checkout.Materializer{
			WorkDir: cfg.Checkout.WorkDir,
			Timeout: cfg.Checkout.CloneTimeout,
		},
		Dispatcher: &extract.Dispatcher{
			Extractor: cfg.Extraction.Extractor,
			Timeout:   cfg.Extraction.Timeout,
			Overwrite: cfg.Extraction.Overwrite,
			DryRun:    cfg.Extraction.DryRun,
		},
		DiscoverRoots: func(dir string) ([]string, error) {
			return discover.CookbookRoots(dir, discover.Options{
				MarkerFile: cfg.Discovery.MarkerFile,
				MarkerDirs: cfg.Discovery.MarkerDirs,
				MaxDepth:   cfg.Discovery.MaxDepth,
			})
		},
		OutDir: cfg.Output.Dir,
	}

	pool, err := NewPool(cfg.Runtime.Concurrency)
	if err != nil {
		return err
	}

	logger.Infof("Total repos to process: %d (concurrency=%d)", len(refs), cfg.Runtime.Concurrency)
	started := time.Now()

	for res := range pool.Run(ctx, refs, worker.Process) {
		if err := logs.Append(res.Status, res); err != nil {
			logger.Errorf("failed to persist outcome for %s: %v", res.Repo, err)
		}
		logOutcome(res)
	}

	logger.Infof("All done in %.2fs. Manifest: %s  Errors: %s",
		time.Since(started).Seconds(), logs.ManifestPath(), logs.ErrorsPath())
	return ctx.Err()
}

// logOutcome emits the one-line console summary for a finished repository.
func logOutcome(res Outcome) {
	switch res.Status {
	case StatusCloneError, StatusFatalError:
		logger.Errorf("%s %s -> %s: %s", tagErr, res.Repo, res.Status, res.Error)
	case StatusNoCookbooks:
		logger.Infof("%s %s (commit %s)", tagNoCookbooks, res.Repo, res.Commit)
	default:
		okCount, errCount := tallyCookbooks(res.Cookbooks)
		logger.Infof("%s %s cookbooks=%d+%d in %.2fs", tagDone, res.Repo, okCount, errCount, res.Secs)
	}
}

func tallyCookbooks(results []extract.Result) (okCount, errCount int) {
	for _, c := range results {
		if c.Status == extract.StatusError {
			errCount++
			continue
		}
		okCount++
	}
	return okCount, errCount
}
