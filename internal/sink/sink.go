// Package sink persists one JSON record per repository outcome to append-only
// JSONL logs: manifest.jsonl for anything the run got through (including
// repositories with no cookbooks), errors.jsonl for total failures. Writes
// are serialized per stream so concurrent workers never interleave lines.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Repo-level statuses that route to the error stream.
const (
	StatusCloneError = "clone_error"
	StatusFatalError = "fatal_error"
)

// IsErrorStatus reports whether a repo outcome belongs in errors.jsonl.
func IsErrorStatus(status string) bool {
	return status == StatusCloneError || status == StatusFatalError
}

// Logs is the pair of durable outcome streams for one run. It is safe for
// concurrent use.
type Logs struct {
	manifest *stream
	errors   *stream
}

// stream is a mutex-guarded append-only JSONL file. The lock is held only
// for the duration of one line write, so a line is either fully visible or
// not at all.
type stream struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func openStream(path string) (*stream, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	return &stream{file: f, enc: json.NewEncoder(f)}, nil
}

func (s *stream) append(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(v)
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Open creates outDir if needed and opens (appending) both log streams.
func Open(outDir string) (*Logs, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest, err := openStream(filepath.Join(outDir, "manifest.jsonl"))
	if err != nil {
		return nil, err
	}
	errs, err := openStream(filepath.Join(outDir, "errors.jsonl"))
	if err != nil {
		_ = manifest.close()
		return nil, err
	}

	return &Logs{manifest: manifest, errors: errs}, nil
}

// Append durably records one repository outcome, routed by status.
func (l *Logs) Append(status string, v any) error {
	if IsErrorStatus(status) {
		return l.errors.append(v)
	}
	return l.manifest.append(v)
}

// ManifestPath returns the manifest log's path.
func (l *Logs) ManifestPath() string { return l.manifest.file.Name() }

// ErrorsPath returns the error log's path.
func (l *Logs) ErrorsPath() string { return l.errors.file.Name() }

func (l *Logs) Close() error {
	manifestErr := l.manifest.close()
	errorsErr := l.errors.close()
	if manifestErr != nil {
		return manifestErr
	}
	return errorsErr
}
