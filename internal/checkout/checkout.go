// Package checkout materializes remote repositories into a local work area.
// Each repository maps to a deterministic URL-derived path, so reruns reuse
// the same checkout and distinct workers never contend for one directory.
package checkout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"cookbatch/internal/execx"
)

// Checkout is a materialized repository: its working directory plus the
// resolved head commit. The commit pins output paths across reruns.
type Checkout struct {
	Dir    string
	Commit string
}

// Materializer produces shallow checkouts under WorkDir by shelling out to
// the git CLI. Every git call is bounded by Timeout and hard-killed when it
// is exceeded.
type Materializer struct {
	WorkDir string
	Timeout time.Duration
}

// Dir returns the deterministic checkout location for a clone URL.
func (m *Materializer) Dir(url string) string {
	return filepath.Join(m.WorkDir, filepath.FromSlash(SanitizePath(url)))
}

// Materialize obtains a shallow checkout of url. A fresh path is cloned at
// depth 1 (optionally of branch); an existing checkout gets a best-effort
// shallow refresh instead, and a refresh failure only logs a warning since
// the previously resolved commit is still valid. A path that exists but is
// not a git checkout is discarded and recreated. Failure to resolve HEAD
// afterwards is a clone-class error.
func (m *Materializer) Materialize(ctx context.Context, url, branch string) (Checkout, error) {
	dest := m.Dir(url)

	if _, err := os.Stat(dest); err == nil {
		// A path that exists but isn't a repo cannot be refreshed; recreate it.
		if _, err := os.Stat(filepath.Join(dest, ".git")); err != nil {
			if err := os.RemoveAll(dest); err != nil {
				return Checkout{}, fmt.Errorf("failed to discard invalid checkout %s: %w", dest, err)
			}
		}
	}

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return Checkout{}, fmt.Errorf("failed to create work directory: %w", err)
		}
		args := []string{"clone", "--quiet", "--depth", "1"}
		if branch != "" {
			args = append(args, "--branch", branch)
		}
		args = append(args, url, dest)
		res, err := execx.Run(ctx, "", m.Timeout, "git", args...)
		if err != nil {
			return Checkout{}, fmt.Errorf("git clone failed: %s", cloneFailureReason(res, err))
		}
	} else {
		// Best-effort fetch in place to keep the checkout fresh.
		res, err := execx.Run(ctx, dest, m.Timeout, "git", "fetch", "--depth", "1", "--all", "--prune")
		if err != nil {
			logger.Warnf("fetch failed in %s: %s", dest, cloneFailureReason(res, err))
		}
	}

	res, err := execx.Run(ctx, dest, m.Timeout, "git", "rev-parse", "HEAD")
	if err != nil {
		return Checkout{}, fmt.Errorf("git rev-parse failed: %s", cloneFailureReason(res, err))
	}

	return Checkout{Dir: dest, Commit: strings.TrimSpace(res.Stdout)}, nil
}

// cloneFailureReason keeps timeout failures distinguishable from ordinary
// git failures in the recorded error string.
func cloneFailureReason(res execx.Result, err error) string {
	if execx.IsTimeout(err) {
		return err.Error()
	}
	if diag := strings.TrimSpace(res.Diagnostic()); diag != "" {
		return diag
	}
	return err.Error()
}
