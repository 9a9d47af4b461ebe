// Package jlink links a minimized runtime image with jlink.
package jlink

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// Args holds the inputs for a jlink invocation.
type Args struct {
	ModulePath []string // --module-path, where the runtime's modules live
	Modules    []string // --add-modules
	Output     string   // --output, must not exist yet
}

// BuildArgs constructs the argument list for jlink.
func BuildArgs(a Args) []string {
	var args []string

	if len(a.ModulePath) > 0 {
		args = append(args, "--module-path", strings.Join(a.ModulePath, string(os.PathListSeparator)))
	}

	args = append(args,
		"--add-modules", strings.Join(a.Modules, ","),
		"--strip-debug",
		"--no-header-files",
		"--no-man-pages",
		"--output", a.Output,
	)

	return args
}

// Run links the runtime image. jlink refuses to write into an existing
// directory, so a stale output from a previous run is removed first.
func Run(ctx context.Context, r runner.Runner, a Args) (*runner.Result, error) {
	if len(a.Modules) == 0 {
		return nil, fmt.Errorf("no runtime modules given — set runtime.modules in your config")
	}
	if a.Output == "" {
		return nil, fmt.Errorf("jlink output directory is required")
	}

	if err := os.RemoveAll(a.Output); err != nil {
		return nil, fmt.Errorf("failed to remove stale runtime image %s: %w", a.Output, err)
	}

	result, err := r.Run(ctx, "jlink", BuildArgs(a)...)
	if err != nil {
		return result, fmt.Errorf("jlink failed: %w", err)
	}
	return result, nil
}
