package sign

import (
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/sign"
)

// skipError signals an intentional skip. It satisfies the pipe.IsSkip interface
// checked by the pipeline runner, without importing pkg/pipe (which would cause
// an import cycle through pkg/pipe/registry.go).
type skipError string

func (e skipError) Error() string { return string(e) }
func (e skipError) IsSkip() bool  { return true }

// Pipe signs the disk image produced on macOS. The bundle inside it was
// already signed by jpackage --mac-sign.
type Pipe struct{}

func (Pipe) String() string { return "signing disk image" }

func (Pipe) Run(ctx *context.Context) error {
	if ctx.Platform != detect.Mac {
		return skipError("code signing only runs on macOS")
	}
	if ctx.Config.Mac.DeveloperID == "" {
		return skipError("no mac.developer_id configured, disk image left unsigned")
	}
	if ctx.Artifacts.DMGPath == "" {
		return fmt.Errorf("no disk image found to sign — ensure the packaging step completed successfully")
	}

	identity := sign.CertificateName(ctx.Config.Mac.DeveloperID)

	ctx.Logger.Infof("Validating signing identity: %s", identity)
	if err := sign.CheckIdentityInKeychain(ctx.StdCtx, ctx.Runner, identity); err != nil {
		return fmt.Errorf("identity validation failed: %w", err)
	}

	ctx.Logger.Infof("Signing %s", ctx.Artifacts.DMGPath)
	if err := sign.SignDMG(ctx.StdCtx, ctx.Runner, ctx.Logger, identity, ctx.Artifacts.DMGPath); err != nil {
		return err
	}

	ctx.Logger.Info("Verifying signature")
	if err := sign.Verify(ctx.StdCtx, ctx.Runner, ctx.Artifacts.DMGPath); err != nil {
		return err
	}

	ctx.Logger.Infof("Signed and verified: %s", ctx.Artifacts.DMGPath)
	return nil
}
