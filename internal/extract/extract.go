// Package extract invokes the external single-cookbook extractor and decides,
// per cookbook, between running it, skipping already-produced output, and
// dry-run listing.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cookbatch/internal/execx"
)

// Per-cookbook statuses recorded in the manifest.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "extract_error"
	StatusDryRun  = "dry_run"
)

// maxDetailLen bounds the diagnostic snippet kept per cookbook for triage.
const maxDetailLen = 4000

// Result is the outcome of dispatching one cookbook root.
type Result struct {
	Cookbook string `json:"cookbook"`
	Status   string `json:"status"`
	Out      string `json:"out,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Dispatcher runs the extractor executable for individual cookbook roots.
// The extractor is a black box: it is handed the cookbook root and the
// desired output path, writes the JSON artifact itself, and signals failure
// with a non-zero exit status and a diagnostic on stderr.
type Dispatcher struct {
	Extractor string
	Timeout   time.Duration
	Overwrite bool
	DryRun    bool
}

// Dispatch processes the cookbook at root (rel is its path relative to the
// checkout, used for reporting). If outFile already exists and overwrite is
// off, the cookbook is skipped; this is what makes reruns resumable. A
// failed or timed-out invocation is recorded, never propagated, so sibling
// cookbooks and other repositories keep going.
func (d *Dispatcher) Dispatch(ctx context.Context, root, rel, outFile string) Result {
	if d.DryRun {
		return Result{Cookbook: rel, Status: StatusDryRun}
	}

	if _, err := os.Stat(outFile); err == nil && !d.Overwrite {
		return Result{Cookbook: rel, Status: StatusSkipped, Out: outFile}
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return Result{
			Cookbook: rel,
			Status:   StatusError,
			Out:      outFile,
			Detail:   truncateDetail(err.Error()),
		}
	}

	res, err := execx.Run(ctx, "", d.Timeout, d.Extractor,
		"--cookbook", root, "--out", outFile, "--summary")
	if err != nil {
		detail := res.Diagnostic()
		if execx.IsTimeout(err) || strings.TrimSpace(detail) == "" {
			detail = err.Error()
		}
		return Result{
			Cookbook: rel,
			Status:   StatusError,
			Out:      outFile,
			Detail:   truncateDetail(detail),
		}
	}

	// Keep a small snippet of extractor stdout for triage.
	return Result{
		Cookbook: rel,
		Status:   StatusOK,
		Out:      outFile,
		Detail:   truncateDetail(res.Stdout),
	}
}

func truncateDetail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxDetailLen {
		return s[:maxDetailLen]
	}
	return s
}
