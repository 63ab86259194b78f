package subtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"subgrab/internal/services"
)

// DefaultBinary is the yt-dlp executable looked up on PATH when none is configured.
const DefaultBinary = "yt-dlp"

// DefaultTimeout bounds a yt-dlp run when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// CommandRunner executes name with args and returns the captured streams.
// Tests substitute it to avoid spawning processes.
type CommandRunner func(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)

// Invocation describes one yt-dlp run.
type Invocation struct {
	URL        string
	Language   string
	Format     Format
	Credential *Credential
	OutputBase string
}

// InvocationResult carries diagnostics from a successful run. It is logged,
// never returned to API callers.
type InvocationResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ToolError describes why yt-dlp did not complete successfully.
type ToolError struct {
	Binary   string
	ExitCode int
	Stderr   string
	TimedOut bool
	Missing  bool
	Err      error
}

func (e *ToolError) Error() string {
	switch {
	case e.Missing:
		return fmt.Sprintf("%s not available: %v", e.Binary, e.Err)
	case e.TimedOut:
		return fmt.Sprintf("%s timed out", e.Binary)
	case e.ExitCode >= 0:
		return fmt.Sprintf("%s exited with status %d", e.Binary, e.ExitCode)
	default:
		return fmt.Sprintf("%s failed: %v", e.Binary, e.Err)
	}
}

func (e *ToolError) Unwrap() error { return e.Err }

// Invoker builds and runs yt-dlp command lines.
type Invoker struct {
	binary    string
	timeout   time.Duration
	extraArgs []string
	run       CommandRunner
}

// NewInvoker returns an Invoker. Empty binary and non-positive timeout fall
// back to DefaultBinary and DefaultTimeout; a nil runner executes real
// processes.
func NewInvoker(binary string, timeout time.Duration, extraArgs []string, runner CommandRunner) *Invoker {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if runner == nil {
		runner = execRunner
	}
	return &Invoker{
		binary:    binary,
		timeout:   timeout,
		extraArgs: append([]string(nil), extraArgs...),
		run:       runner,
	}
}

// Binary returns the executable the invoker runs.
func (i *Invoker) Binary() string { return i.binary }

// BuildArgs returns the yt-dlp argument list for inv.
func (i *Invoker) BuildArgs(inv Invocation) []string {
	args := []string{
		"--ignore-config",
		"--skip-download",
		"--write-auto-subs",
		"--sub-langs", inv.Language,
		"--sub-format", inv.Format.SubFormat(),
	}
	if path := inv.Credential.Path(); path != "" {
		args = append(args, "--cookies", path)
	}
	args = append(args,
		"--no-playlist",
		"--no-progress",
		"--output", escapeTemplate(inv.OutputBase),
	)
	args = append(args, i.extraArgs...)
	return append(args, "--", inv.URL)
}

// Invoke runs yt-dlp synchronously. The run is detached from ctx
// cancellation so a departing caller cannot leave a half-written file behind,
// but it is always bounded by the invoker timeout.
func (i *Invoker) Invoke(ctx context.Context, inv Invocation) (InvocationResult, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	started := time.Now()
	stdout, stderr, err := i.run(runCtx, i.binary, i.BuildArgs(inv))
	result := InvocationResult{
		Stdout:   string(stdout),
		Stderr:   string(stderr),
		Duration: time.Since(started),
	}
	if err == nil {
		return result, nil
	}

	toolErr := &ToolError{Binary: i.binary, ExitCode: -1, Stderr: result.Stderr, Err: err}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		toolErr.TimedOut = true
		return result, services.Wrap(services.ErrTimeout, "subtitles", "invoke",
			fmt.Sprintf("no result after %s", i.timeout), toolErr)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		toolErr.Missing = true
		return result, services.Wrap(services.ErrToolMissing, "subtitles", "invoke", "", toolErr)
	case errors.As(err, &exitErr):
		toolErr.ExitCode = exitErr.ExitCode()
		return result, services.Wrap(services.ErrExternalTool, "subtitles", "invoke", "", toolErr)
	default:
		return result, services.Wrap(services.ErrExternalTool, "subtitles", "invoke", "", toolErr)
	}
}

// escapeTemplate protects literal percent signs from yt-dlp's output
// template expansion.
func escapeTemplate(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}

func execRunner(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
