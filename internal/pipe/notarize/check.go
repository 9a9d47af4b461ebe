package notarize

import (
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/env"
	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// skipError signals an intentional skip. It satisfies the pipe.IsSkip interface
// checked by the pipeline runner, without importing pkg/pipe (which would cause
// an import cycle through pkg/pipe/registry.go).
type skipError string

func (e skipError) Error() string { return string(e) }
func (e skipError) IsSkip() bool  { return true }

// CheckPipe validates notarization configuration
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating notarization configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	if ctx.SkipNotarize {
		return skipError("notarization skipped via --skip-notarize")
	}

	cfg := ctx.Config.Notarize

	if err := env.CheckResolved(cfg.KeychainProfile, "notarize.keychain_profile"); err != nil {
		return err
	}
	if cfg.KeychainProfile == "" {
		return skipError("no notarize.keychain_profile configured")
	}

	if err := validate.RequiredString(ctx.Config.Mac.DeveloperID, "mac.developer_id (required for notarization)"); err != nil {
		return err
	}

	interval, err := cfg.Interval()
	if err != nil {
		return err
	}
	if err := validate.PositiveDuration(interval, "notarize.poll_interval"); err != nil {
		return err
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("notarize.max_attempts must be positive, got %d", cfg.MaxAttempts)
	}

	ctx.Logger.Debug("Notarization configuration validated successfully")
	return nil
}
