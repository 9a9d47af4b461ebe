package sign

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
)

// SignDMG signs a disk image in place with a timestamped hardened-runtime
// signature. Disk images carry no entitlements.
func SignDMG(ctx context.Context, r runner.Runner, logger logrus.FieldLogger, identity, dmgPath string) error {
	if identity == "" {
		return fmt.Errorf("signing identity is required")
	}
	if _, err := os.Stat(dmgPath); err != nil {
		return fmt.Errorf("disk image %s not found: %w", dmgPath, err)
	}

	result, err := r.Run(ctx, "codesign", BuildSignArgs(identity, "", dmgPath)...)
	if err != nil {
		return fmt.Errorf("codesign of %s failed: %w", dmgPath, err)
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		logger.Warnf("codesign finished with messages: %s", stderr)
	}
	return nil
}

// Verify checks a signed bundle or image with `codesign --verify --deep --strict`.
func Verify(ctx context.Context, r runner.Runner, path string) error {
	if _, err := r.Run(ctx, "codesign", "--verify", "--deep", "--strict", "--verbose=2", path); err != nil {
		return fmt.Errorf("signature verification of %s failed: %w", path, err)
	}
	return nil
}
