package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ExecSpec describes one subprocess execution
type ExecSpec struct {
	// Files are written into the run directory before launch.
	Files map[string]string
	// Command is the full argv; relative file names resolve against the
	// run directory.
	Command []string
	// Image selects the container image; ignored by the local executor.
	Image string
	// Timeout bounds wall-clock time.
	Timeout time.Duration
}

// ExecOutput is the raw outcome of an execution
type ExecOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Executor runs a spec in isolation. Implementations must kill the process
// when the timeout expires and still return whatever output was produced.
type Executor interface {
	Exec(ctx context.Context, spec ExecSpec) (*ExecOutput, error)
}

// MaxOutputBytes caps captured output per stream
const MaxOutputBytes = 64 * 1024

// LocalExecutor runs specs as subprocesses in per-run temp directories
type LocalExecutor struct{}

// NewLocalExecutor creates a subprocess executor
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

func (e *LocalExecutor) Exec(ctx context.Context, spec ExecSpec) (*ExecOutput, error) {
	tmpDir, err := createRunDir(spec.Files)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = tmpDir

	var stdout, stderr cappedBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	out := &ExecOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		out.TimedOut = true
		out.ExitCode = -1
		return out, nil
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, runErr
	}
	return out, nil
}

func createRunDir(files map[string]string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "codequest-run-*")
	if err != nil {
		return "", err
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if dir := filepath.Dir(path); dir != tmpDir {
			os.MkdirAll(dir, 0o755)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			os.RemoveAll(tmpDir)
			return "", err
		}
	}
	return tmpDir, nil
}

// cappedBuffer drops writes past MaxOutputBytes so a runaway print loop
// cannot exhaust memory.
type cappedBuffer struct {
	buf bytes.Buffer
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := MaxOutputBytes - b.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
