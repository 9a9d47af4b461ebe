package release

import (
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/env"
	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// CheckPipe validates release configuration
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating release configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	if ctx.SkipPublish {
		return skipError("publishing skipped")
	}

	cfg := ctx.Config.Release.GitHub
	if !cfg.Enabled() {
		return skipError("no release.github target configured")
	}

	if err := env.CheckResolved(cfg.Owner, "release.github.owner"); err != nil {
		return err
	}
	if err := env.CheckResolved(cfg.Repo, "release.github.repo"); err != nil {
		return err
	}
	if err := env.CheckResolved(cfg.Token, "release.github.token"); err != nil {
		return err
	}

	if err := validate.RequiredString(cfg.Owner, "release.github.owner"); err != nil {
		return err
	}

	if err := validate.RequiredString(cfg.Repo, "release.github.repo"); err != nil {
		return err
	}

	if err := validate.HTTPURL(cfg.APIURL, "release.github.api_url"); err != nil {
		return err
	}
	if err := validate.HTTPURL(cfg.UploadURL, "release.github.upload_url"); err != nil {
		return err
	}
	if cfg.UploadURL != "" && cfg.APIURL == "" {
		return fmt.Errorf("release.github.upload_url requires release.github.api_url")
	}

	ctx.Logger.Debug("Release configuration validated successfully")
	return nil
}
