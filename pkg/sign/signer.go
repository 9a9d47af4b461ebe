// Package sign code-signs macOS app bundles, embedded runtimes and disk images
// with codesign.
//
// A Signer works in four ordered phases: verify inputs, sign every file in
// the bundle, re-sign the runtime's executables with the runtime
// entitlements, and finally sign the launcher. The outermost binary is signed
// last because its signature covers the already-signed content nested in it.
// A failing phase stops the procedure; later phases never run.
package sign

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
)

// DefaultRuntimeDir is where jpackage places the linked runtime inside an app bundle.
const DefaultRuntimeDir = "Contents/runtime"

// defaultBatchSize caps how many files are passed to a single codesign call.
const defaultBatchSize = 64

// defaultCodesignArgs are appended after "-s <identity>" on every signing call.
var defaultCodesignArgs = []string{"-v", "--timestamp", "--force", "--options", "runtime"}

// RuntimeExecutables are the runtime binaries that need the runtime
// entitlements (JIT, unsigned executable memory) instead of the bundle defaults.
var RuntimeExecutables = []string{"java", "jrunscript", "keytool"}

// ErrNotExecutable is returned when the launcher lacks an execute permission bit.
var ErrNotExecutable = errors.New("launcher is not executable")

// Phase names one step of the signing procedure.
type Phase string

const (
	PhaseVerify          Phase = "verify"
	PhaseSignAll         Phase = "sign-all"
	PhaseSignRuntime     Phase = "sign-runtime-executables"
	PhaseSignLauncher    Phase = "sign-launcher"
	PhaseRemoveSignature Phase = "remove-signature"
)

// PhaseError reports which phase of the procedure failed.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }
func (e *PhaseError) Unwrap() error { return e.Err }

// Identity is a signing certificate plus the entitlements used for the
// runtime executables and the launcher.
type Identity struct {
	// ID is the certificate name, e.g. "Developer ID Application: Jane Doe (TEAM123)".
	ID                   string
	RuntimeEntitlements  string
	LauncherEntitlements string
}

// Signer signs one app bundle.
type Signer struct {
	Runner   runner.Runner
	Logger   logrus.FieldLogger
	Identity Identity

	// BundleRoot is the .app directory.
	BundleRoot string
	// Launcher is the top-level executable, usually Contents/MacOS/<name>.
	Launcher string
	// RuntimeDir is the embedded runtime, relative to BundleRoot.
	RuntimeDir string
	// BatchSize caps the number of files per codesign call in the sign-all phase.
	BatchSize int
}

// New creates a Signer with default runtime location and batch size.
func New(r runner.Runner, logger logrus.FieldLogger, id Identity, bundleRoot, launcher string) *Signer {
	return &Signer{
		Runner:     r,
		Logger:     logger,
		Identity:   id,
		BundleRoot: bundleRoot,
		Launcher:   launcher,
		RuntimeDir: DefaultRuntimeDir,
		BatchSize:  defaultBatchSize,
	}
}

// Sign runs all four phases in order.
func (s *Signer) Sign(ctx context.Context) error {
	if err := s.verify(); err != nil {
		return &PhaseError{Phase: PhaseVerify, Err: err}
	}
	if err := s.signAll(ctx); err != nil {
		return &PhaseError{Phase: PhaseSignAll, Err: err}
	}
	if err := s.signRuntimeExecutables(ctx); err != nil {
		return &PhaseError{Phase: PhaseSignRuntime, Err: err}
	}
	if err := s.signLauncher(ctx); err != nil {
		return &PhaseError{Phase: PhaseSignLauncher, Err: err}
	}
	return nil
}

// RemoveSignature strips signatures from every regular file in the embedded
// runtime. Already unsigned files are not an error, so running it twice
// leaves the same state as running it once.
func (s *Signer) RemoveSignature(ctx context.Context) error {
	root := s.runtimeRoot()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return &PhaseError{Phase: PhaseRemoveSignature, Err: fmt.Errorf("embedded runtime %s not found", root)}
	}

	if err := s.run(ctx, PhaseRemoveSignature, "find", BuildRemoveSignatureArgs(root)); err != nil {
		return &PhaseError{Phase: PhaseRemoveSignature, Err: err}
	}
	return nil
}

func (s *Signer) verify() error {
	if s.Identity.ID == "" {
		return fmt.Errorf("signing identity is required")
	}

	inputs := []struct{ path, what string }{
		{s.BundleRoot, "app bundle"},
		{s.Launcher, "launcher"},
		{s.Identity.RuntimeEntitlements, "runtime entitlements"},
		{s.Identity.LauncherEntitlements, "launcher entitlements"},
	}
	for _, in := range inputs {
		if in.path == "" {
			return fmt.Errorf("%s path is required", in.what)
		}
		if _, err := os.Stat(in.path); err != nil {
			return fmt.Errorf("%s %s does not exist: %w", in.what, in.path, err)
		}
	}

	info, err := os.Stat(s.Launcher)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s (mode %s) — run: chmod +x %s", ErrNotExecutable, s.Launcher, info.Mode(), s.Launcher)
	}
	return nil
}

func (s *Signer) signAll(ctx context.Context) error {
	files, err := regularFilesDeepestFirst(s.BundleRoot)
	if err != nil {
		return fmt.Errorf("failed to list files in %s: %w", s.BundleRoot, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to sign in %s", s.BundleRoot)
	}

	size := s.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	s.Logger.Infof("Signing %d files in %s", len(files), s.BundleRoot)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		if err := s.run(ctx, PhaseSignAll, "codesign", BuildSignArgs(s.Identity.ID, "", files[start:end]...)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Signer) signRuntimeExecutables(ctx context.Context) error {
	var targets []string
	for _, p := range RuntimeExecutablePaths(s.runtimeRoot()) {
		if _, err := os.Stat(p); err != nil {
			s.Logger.Warnf("Runtime executable %s not found, skipping", p)
			continue
		}
		targets = append(targets, p)
	}
	if len(targets) == 0 {
		return fmt.Errorf("none of %v found in %s — check mac.runtime_dir in your config", RuntimeExecutables, s.runtimeRoot())
	}

	s.Logger.Infof("Signing %d runtime executables", len(targets))
	return s.run(ctx, PhaseSignRuntime, "codesign", BuildSignArgs(s.Identity.ID, s.Identity.RuntimeEntitlements, targets...))
}

func (s *Signer) signLauncher(ctx context.Context) error {
	s.Logger.Infof("Signing launcher %s", s.Launcher)
	return s.run(ctx, PhaseSignLauncher, "codesign", BuildSignArgs(s.Identity.ID, s.Identity.LauncherEntitlements, s.Launcher))
}

// run executes one command. Non-empty stderr on success is only logged,
// since codesign reports progress there.
func (s *Signer) run(ctx context.Context, phase Phase, name string, args []string) error {
	s.Logger.Debugf("Running %s", runner.CommandLine(name, args...))

	result, err := s.Runner.Run(ctx, name, args...)
	if err != nil {
		return err
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		s.Logger.WithField("phase", string(phase)).Warnf("%s finished with messages: %s", name, stderr)
	}
	return nil
}

func (s *Signer) runtimeRoot() string {
	dir := s.RuntimeDir
	if dir == "" {
		dir = DefaultRuntimeDir
	}
	return filepath.Join(s.BundleRoot, dir)
}

// BuildSignArgs returns the codesign arguments for signing targets. An empty
// entitlements path omits --entitlements.
func BuildSignArgs(identity, entitlements string, targets ...string) []string {
	args := []string{"-s", identity}
	args = append(args, defaultCodesignArgs...)
	if entitlements != "" {
		args = append(args, "--entitlements", entitlements)
	}
	return append(args, targets...)
}

// BuildRemoveSignatureArgs returns the find arguments that strip the
// signature of every regular file below root.
func BuildRemoveSignatureArgs(root string) []string {
	return []string{root, "-type", "f", "-exec", "codesign", "--remove-signature", "{}", ";"}
}

// RuntimeExecutablePaths lists the runtime binaries re-signed with the
// runtime entitlements.
func RuntimeExecutablePaths(runtimeRoot string) []string {
	paths := make([]string, 0, len(RuntimeExecutables))
	for _, exe := range RuntimeExecutables {
		paths = append(paths, filepath.Join(runtimeRoot, "Contents", "Home", "bin", exe))
	}
	return paths
}

// regularFilesDeepestFirst lists regular files below root, nested files
// before their parents' siblings, so inner code is signed before outer code.
func regularFilesDeepestFirst(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		di := strings.Count(files[i], string(filepath.Separator))
		dj := strings.Count(files[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return files[i] < files[j]
	})
	return files, nil
}
