// Package staple attaches the notarization ticket to the disk image.
package staple

import (
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/notarize"
)

// skipError signals an intentional skip. It satisfies the pipe.IsSkip interface
// checked by the pipeline runner, without importing pkg/pipe (which would cause
// an import cycle through pkg/pipe/registry.go).
type skipError string

func (e skipError) Error() string { return string(e) }
func (e skipError) IsSkip() bool  { return true }

// Pipe staples the accepted ticket and optionally runs a Gatekeeper assessment.
type Pipe struct{}

func (Pipe) String() string { return "stapling notarization ticket" }

func (Pipe) Run(ctx *context.Context) error {
	if ctx.Platform != detect.Mac {
		return skipError("stapling only runs on macOS")
	}
	if ctx.Artifacts.Notarization == nil {
		return skipError("nothing was notarized")
	}

	ctx.Logger.Infof("Stapling %s", ctx.Artifacts.Notarization.Artifact)
	if err := notarize.NewStapler(ctx.Runner, ctx.Logger).Staple(ctx.StdCtx, ctx.Artifacts.Notarization); err != nil {
		return err
	}

	if ctx.Config.Notarize.VerifyGatekeeper {
		ctx.Logger.Info("Verifying Gatekeeper assessment")
		output, err := notarize.Assess(ctx.StdCtx, ctx.Runner, ctx.Artifacts.Notarization.Artifact)
		if err != nil {
			if output != "" {
				ctx.Logger.Debug(output)
			}
			return fmt.Errorf("Gatekeeper assessment failed: %w", err) //nolint:staticcheck // proper noun
		}
		ctx.Logger.Debug(output)
	}

	ctx.Logger.Infof("Notarization complete: %s", ctx.Artifacts.Notarization.Artifact)
	return nil
}
