// Package jlink links the runtime image the installers bundle.
package jlink

import (
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/jlink"
)

// Pipe runs jlink into <build.dir>/runtime.
type Pipe struct{}

func (Pipe) String() string { return "linking runtime image" }

func (Pipe) Run(ctx *context.Context) error {
	output := ctx.Config.Build.RuntimeImage()

	result, err := jlink.Run(ctx.StdCtx, ctx.Runner, jlink.Args{
		ModulePath: ctx.Config.Runtime.ModulePath,
		Modules:    ctx.Config.Runtime.Modules,
		Output:     output,
	})
	if err != nil {
		return err
	}
	if out := strings.TrimSpace(result.Stdout); out != "" {
		ctx.Logger.Debug(out)
	}

	ctx.Artifacts.RuntimeImage = output
	ctx.Logger.Infof("Runtime image: %s", output)
	return nil
}
