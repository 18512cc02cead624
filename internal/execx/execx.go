// Package execx runs external commands with a bounded lifetime. A command
// that exceeds its timeout is force-killed, never abandoned, so a hung
// subprocess cannot leak a worker slot.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// waitDelay bounds how long Wait keeps reading output pipes after the
// command is cancelled, so an orphaned descendant holding the inherited
// stdout/stderr cannot block the caller.
const waitDelay = 3 * time.Second

// Result holds the captured output of a completed (or killed) command.
type Result struct {
	Stdout string
	Stderr string
}

// Diagnostic returns the most useful output for triage: stderr if the
// command wrote any, otherwise stdout.
func (r Result) Diagnostic() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// TimeoutError reports a command that was killed after exceeding its timeout.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Name, e.Timeout)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Run executes name with args in dir (empty dir means the current directory),
// bounded by timeout when timeout > 0. Output captured so far is returned
// even when the command fails or is killed.
func Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	// Run the command in its own process group and kill the whole group on
	// cancel: tools like git fork helpers (git-remote-https) that inherit the
	// output pipes, and killing only the parent would leave them running with
	// Wait blocked on the pipes. WaitDelay backstops any descendant that
	// survives the group kill.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, &TimeoutError{Name: name, Timeout: timeout}
		}
		return res, err
	}
	return res, nil
}
