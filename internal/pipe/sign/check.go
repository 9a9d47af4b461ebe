package sign

import (
	"fmt"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/env"
	"github.com/bundlesmith/bundlesmith/pkg/sign"
)

// CheckPipe validates signing configuration
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating signing configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	cfg := ctx.Config.Mac

	if err := env.CheckResolved(cfg.DeveloperID, "mac.developer_id"); err != nil {
		return err
	}

	if !filepath.IsLocal(cfg.RuntimeDir) {
		return fmt.Errorf("mac.runtime_dir %q must be a relative path inside the app bundle", cfg.RuntimeDir)
	}

	for field, path := range map[string]string{
		"mac.entitlements.runtime":  cfg.Entitlements.Runtime,
		"mac.entitlements.launcher": cfg.Entitlements.Launcher,
	} {
		if path == "" {
			continue
		}
		ents, err := sign.ReadEntitlements(path)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		keys := ents.Keys()
		if len(keys) == 0 {
			return fmt.Errorf("%s: %s declares no entitlements", field, path)
		}
		ctx.Logger.WithField("entitlements", keys).Debugf("Loaded %s", field)
	}

	ctx.Logger.Debug("Signing configuration validated successfully")
	return nil
}
