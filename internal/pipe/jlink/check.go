package jlink

import (
	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// CheckPipe validates runtime configuration
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating runtime configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	cfg := ctx.Config.Runtime

	if err := validate.RequiredSlice(cfg.Modules, "runtime.modules"); err != nil {
		return err
	}
	for _, m := range cfg.Modules {
		if err := validate.RequiredString(m, "runtime.modules entry"); err != nil {
			return err
		}
	}

	if err := validate.RequiredString(ctx.Config.Build.Dir, "build.dir"); err != nil {
		return err
	}

	ctx.Logger.Debug("Runtime configuration validated successfully")
	return nil
}
