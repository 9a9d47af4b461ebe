// Package stage copies the built application module into the module path
// jpackage reads from.
package stage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/context"
)

// skipError signals an intentional skip. It satisfies the pipe.IsSkip interface
// checked by the pipeline runner, without importing pkg/pipe (which would cause
// an import cycle through pkg/pipe/registry.go).
type skipError string

func (e skipError) Error() string { return string(e) }
func (e skipError) IsSkip() bool  { return true }

// Pipe copies project.artifact into the first project.module_path entry.
type Pipe struct{}

func (Pipe) String() string { return "staging application module" }

func (Pipe) Run(ctx *context.Context) error {
	cfg := ctx.Config.Project
	if cfg.Artifact == "" {
		return skipError("no project.artifact configured, using module path as is")
	}
	if len(cfg.ModulePath) == 0 {
		return fmt.Errorf("project.module_path is empty — nowhere to stage %s", cfg.Artifact)
	}

	destDir := cfg.ModulePath[0]
	dest := filepath.Join(destDir, filepath.Base(cfg.Artifact))

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create module path directory %s: %w", destDir, err)
	}
	if same, err := sameFile(cfg.Artifact, dest); err != nil {
		return err
	} else if same {
		ctx.Artifacts.StagedArtifact = dest
		ctx.Logger.Infof("%s is already in the module path", dest)
		return nil
	}
	if err := copyFile(cfg.Artifact, dest); err != nil {
		return err
	}

	ctx.Artifacts.StagedArtifact = dest
	ctx.Logger.Infof("Staged %s", dest)
	return nil
}

// sameFile reports whether dest already is the artifact at src.
func sameFile(src, dest string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("artifact not found — build the module first: %w", err)
	}
	destInfo, err := os.Stat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", dest, err)
	}
	return os.SameFile(srcInfo, destInfo), nil
}

// copyFile writes src to a temporary file next to dest and renames it into
// place, so dest is never left truncated.
func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("artifact not found — build the module first: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("artifact %s is not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to copy artifact to %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move artifact into %s: %w", dest, err)
	}
	return nil
}
