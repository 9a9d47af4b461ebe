// Package runner executes external commands for the packaging pipeline.
//
// Every native tool invocation (jlink, jpackage, codesign, notarytool, stapler,
// dpkg, rpm, find) goes through a Runner. The pipeline only builds argument
// lists and interprets the returned Result, which keeps the steps testable
// with MockRunner.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result holds the captured output streams and exit status of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a single external command and waits for it to exit.
//
// Run returns a non-nil Result whenever the process was started. A non-zero
// exit status is reported as an *ExitError wrapping that same Result; any
// other error means the process could not be started at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Name   string
	Args   []string
	Result *Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.Result.ExitCode)
	if stderr := strings.TrimSpace(e.Result.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// IsExitError reports whether err is (or wraps) an *ExitError and returns it.
func IsExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr, true
	}
	return nil, false
}

// ExecRunner runs commands on the build host with os/exec.
type ExecRunner struct {
	// Dir is the working directory for spawned processes. Empty means the
	// current directory.
	Dir string
}

// Ensure ExecRunner implements Runner
var _ Runner = ExecRunner{}

// Run executes name with args, capturing stdout and stderr separately. A
// cancelled ctx prevents the start; a tool that is already running is never
// interrupted.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s not started: %w", name, err)
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	// #nosec G204 -- argument lists are built by the pipeline, not taken from a shell
	cmd := exec.Command(name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &ExitError{Name: name, Args: args, Result: result}
		}
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return result, nil
}

// CommandLine renders a command for log output.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
