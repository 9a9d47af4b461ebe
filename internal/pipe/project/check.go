package project

import (
	"fmt"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/git"
	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// CheckPipe validates project configuration
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating project configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	cfg := ctx.Config.Project

	if err := validate.RequiredString(cfg.Name, "project.name"); err != nil {
		return err
	}
	if !filepath.IsLocal(cfg.Name) {
		return fmt.Errorf("project.name %q must be a plain file name", cfg.Name)
	}

	if err := validate.RequiredString(cfg.Module, "project.module"); err != nil {
		return err
	}

	if err := validate.RequiredString(cfg.MainModule, "project.main_module"); err != nil {
		return err
	}

	if err := validate.RequiredSlice(cfg.ModulePath, "project.module_path"); err != nil {
		return err
	}

	if cfg.Version != "" {
		if _, err := git.AppVersion(cfg.Version); err != nil {
			return fmt.Errorf("project.version: %w", err)
		}
	}

	ctx.Logger.Debug("Project configuration validated successfully")
	return nil
}
