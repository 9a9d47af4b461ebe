package project

import (
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/git"
)

// Pipe resolves the installer version: project.version when set, otherwise
// the latest git tag.
type Pipe struct{}

func (Pipe) String() string { return "resolving version" }

func (Pipe) Run(ctx *context.Context) error {
	if ctx.Version != "" {
		ctx.Logger.Debugf("Version already set: %s", ctx.Version)
		return nil
	}

	tag := ctx.Config.Project.Version
	if tag == "" {
		resolved, err := git.ResolveVersion(ctx.StdCtx, ctx.Runner)
		if err != nil {
			return err
		}
		tag = resolved
		ctx.Tag = resolved
	}

	version, err := git.AppVersion(tag)
	if err != nil {
		return fmt.Errorf("failed to derive installer version: %w", err)
	}
	ctx.Version = version

	ctx.Logger.Infof("Version: %s", version)
	return nil
}
