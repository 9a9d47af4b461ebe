package notarize

import (
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/notarize"
)

// Pipe submits the signed disk image to the Apple notary service and waits
// for a verdict.
type Pipe struct{}

func (Pipe) String() string { return "notarizing disk image" }

func (Pipe) Run(ctx *context.Context) error {
	if ctx.Platform != detect.Mac {
		return skipError("notarization only runs on macOS")
	}
	if ctx.SkipNotarize {
		return skipError("notarization skipped via --skip-notarize")
	}

	cfg := ctx.Config.Notarize
	if cfg.KeychainProfile == "" {
		return skipError("no notarize.keychain_profile configured")
	}
	if ctx.Artifacts.DMGPath == "" {
		return fmt.Errorf("no disk image found to notarize — ensure the packaging and signing steps completed successfully")
	}

	interval, err := cfg.Interval()
	if err != nil {
		return err
	}

	n := notarize.New(ctx.Runner, ctx.Logger)
	n.PollInterval = interval
	n.MaxAttempts = cfg.MaxAttempts

	ctx.Logger.Info("Submitting to Apple notary service (this may take several minutes)...")
	result, err := n.Notarize(ctx.StdCtx, notarize.Request{
		Artifact:        ctx.Artifacts.DMGPath,
		KeychainProfile: cfg.KeychainProfile,
	})
	ctx.Artifacts.Notarization = result
	if err != nil {
		if result != nil && result.Log != nil {
			for _, issue := range result.Log.Issues {
				ctx.Logger.Warnf("%s: %s", issue.Path, issue.Message)
			}
		}
		return fmt.Errorf("notarization failed: %w", err)
	}

	ctx.Logger.Infof("Notarization accepted after %d status checks (id %s)", result.Attempts, result.SubmissionID)
	return nil
}
