package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeScript writes an executable stub extractor. The dispatcher invokes it
// as: extractor --cookbook ROOT --out OUT --summary, so $4 is the out path.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "extractor.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDispatch_OK_WritesArtifactAndKeepsStdoutSnippet(t *testing.T) {
	script := writeScript(t, `echo summary-line
echo '{}' > "$4"`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute}

	outFile := filepath.Join(t.TempDir(), "a.json")
	res := d.Dispatch(context.Background(), t.TempDir(), "a", outFile)

	if res.Status != StatusOK {
		t.Fatalf("status = %q, want %q (detail: %s)", res.Status, StatusOK, res.Detail)
	}
	if res.Cookbook != "a" {
		t.Errorf("cookbook = %q, want %q", res.Cookbook, "a")
	}
	if res.Out != outFile {
		t.Errorf("out = %q, want %q", res.Out, outFile)
	}
	if res.Detail != "summary-line" {
		t.Errorf("detail = %q, want %q", res.Detail, "summary-line")
	}
	if _, err := os.Stat(outFile); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestDispatch_SkipsExistingOutput(t *testing.T) {
	script := writeScript(t, `echo should-not-run >&2; exit 1`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute}

	outFile := filepath.Join(t.TempDir(), "a.json")
	if err := os.WriteFile(outFile, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res := d.Dispatch(context.Background(), t.TempDir(), "a", outFile)
	if res.Status != StatusSkipped {
		t.Fatalf("status = %q, want %q", res.Status, StatusSkipped)
	}
	if res.Out != outFile {
		t.Errorf("out = %q, want %q", res.Out, outFile)
	}
}

func TestDispatch_OverwriteRedoesExistingOutput(t *testing.T) {
	script := writeScript(t, `echo '{"fresh":true}' > "$4"`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute, Overwrite: true}

	outFile := filepath.Join(t.TempDir(), "a.json")
	if err := os.WriteFile(outFile, []byte("stale"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res := d.Dispatch(context.Background(), t.TempDir(), "a", outFile)
	if res.Status != StatusOK {
		t.Fatalf("status = %q, want %q", res.Status, StatusOK)
	}
	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "fresh") {
		t.Errorf("artifact not overwritten: %q", string(data))
	}
}

func TestDispatch_DryRun_WritesNothing(t *testing.T) {
	script := writeScript(t, `echo should-not-run >&2; exit 1`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute, DryRun: true}

	outFile := filepath.Join(t.TempDir(), "sub", "a.json")
	res := d.Dispatch(context.Background(), t.TempDir(), "a", outFile)

	if res.Status != StatusDryRun {
		t.Fatalf("status = %q, want %q", res.Status, StatusDryRun)
	}
	if res.Out != "" {
		t.Errorf("dry_run result carries out path %q", res.Out)
	}
	if _, err := os.Stat(outFile); !os.IsNotExist(err) {
		t.Errorf("dry run created output: %v", err)
	}
}

func TestDispatch_NonZeroExit_RecordsDiagnostic(t *testing.T) {
	script := writeScript(t, `echo boom >&2; exit 3`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute}

	outFile := filepath.Join(t.TempDir(), "a.json")
	res := d.Dispatch(context.Background(), t.TempDir(), "a", outFile)

	if res.Status != StatusError {
		t.Fatalf("status = %q, want %q", res.Status, StatusError)
	}
	if !strings.Contains(res.Detail, "boom") {
		t.Errorf("detail = %q, want it to contain %q", res.Detail, "boom")
	}
}

func TestDispatch_Timeout_RecordsErrorPromptly(t *testing.T) {
	script := writeScript(t, `sleep 10`)
	d := &Dispatcher{Extractor: script, Timeout: 100 * time.Millisecond}

	start := time.Now()
	res := d.Dispatch(context.Background(), t.TempDir(), "a", filepath.Join(t.TempDir(), "a.json"))
	elapsed := time.Since(start)

	if res.Status != StatusError {
		t.Fatalf("status = %q, want %q", res.Status, StatusError)
	}
	if !strings.Contains(res.Detail, "timed out") {
		t.Errorf("detail = %q, want a timeout reason", res.Detail)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("extractor not killed promptly, took %s", elapsed)
	}
}

func TestDispatch_DetailTruncated(t *testing.T) {
	// 5000 chars of stderr then a failing exit.
	script := writeScript(t, `awk 'BEGIN { for (i = 0; i < 5000; i++) printf "x" }' >&2; exit 1`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute}

	res := d.Dispatch(context.Background(), t.TempDir(), "a", filepath.Join(t.TempDir(), "a.json"))
	if res.Status != StatusError {
		t.Fatalf("status = %q, want %q", res.Status, StatusError)
	}
	if len(res.Detail) != 4000 {
		t.Fatalf("detail length = %d, want 4000", len(res.Detail))
	}
}

func TestDispatch_CreatesOutputParentDirectory(t *testing.T) {
	script := writeScript(t, `echo '{}' > "$4"`)
	d := &Dispatcher{Extractor: script, Timeout: time.Minute}

	outFile := filepath.Join(t.TempDir(), "deep", "nested", "a.json")
	res := d.Dispatch(context.Background(), t.TempDir(), "a", outFile)
	if res.Status != StatusOK {
		t.Fatalf("status = %q, want %q (detail: %s)", res.Status, StatusOK, res.Detail)
	}
	if _, err := os.Stat(outFile); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}
