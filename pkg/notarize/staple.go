package notarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/checksum"
	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
)

// Stapler attaches an accepted notarization ticket to the artifact in place.
type Stapler struct {
	Runner runner.Runner
	Logger logrus.FieldLogger
}

// NewStapler creates a Stapler.
func NewStapler(r runner.Runner, logger logrus.FieldLogger) *Stapler {
	return &Stapler{Runner: r, Logger: logger}
}

// Staple runs `xcrun stapler staple` on the notarized artifact. The result
// must be Accepted and the artifact must still hash to the checksum recorded
// at submission.
func (s *Stapler) Staple(ctx context.Context, result *Result) error {
	if result == nil {
		return fmt.Errorf("no notarization result to staple — run the notarize step first")
	}
	if result.Status != StatusAccepted {
		return fmt.Errorf("cannot staple %s: notarization status is %s, want %s", result.Artifact, result.Status, StatusAccepted)
	}

	sum, err := checksum.File(result.Artifact)
	if err != nil {
		return err
	}
	if sum != result.SHA256 {
		return fmt.Errorf("%w: %s hashed %s at submission and %s now — re-run notarization",
			ErrArtifactModified, result.Artifact, result.SHA256, sum)
	}

	out, err := s.Runner.Run(ctx, "xcrun", "stapler", "staple", result.Artifact)
	if err != nil {
		if exitErr, ok := runner.IsExitError(err); ok && strings.Contains(exitErr.Result.Stdout+exitErr.Result.Stderr, "Could not find ticket") {
			return fmt.Errorf("stapling failed — the notarization ticket for %s was not found; ensure submission %s was accepted",
				result.Artifact, result.SubmissionID)
		}
		return fmt.Errorf("stapler staple failed: %w", err)
	}
	s.Logger.Debugf("stapler: %s", strings.TrimSpace(out.Stdout))
	return nil
}
