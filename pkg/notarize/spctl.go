package notarize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// BuildAssessArgs returns the spctl arguments for a Gatekeeper assessment.
// Disk images are assessed as opened documents, bundles as executables.
func BuildAssessArgs(path string) []string {
	if strings.EqualFold(filepath.Ext(path), ".dmg") {
		return []string{"--assess", "--type", "open", "--context", "context:primary-signature", "--verbose", path}
	}
	return []string{"--assess", "--type", "execute", "--verbose", path}
}

// Assess verifies that path passes Gatekeeper with spctl.
func Assess(ctx context.Context, r runner.Runner, path string) (string, error) {
	result, err := r.Run(ctx, "spctl", BuildAssessArgs(path)...)
	if err != nil {
		if exitErr, ok := runner.IsExitError(err); ok && strings.Contains(exitErr.Result.Stderr, "rejected") {
			return exitErr.Result.Stderr, fmt.Errorf("Gatekeeper rejected %s — it may not be properly signed or notarized", path) //nolint:staticcheck // proper noun
		}
		return "", fmt.Errorf("spctl assess failed: %w", err)
	}
	// spctl reports the verdict on stderr
	return strings.TrimSpace(result.Stderr + result.Stdout), nil
}
