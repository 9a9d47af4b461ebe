// Package changelog generates release notes from the commits since the
// previous tag.
package changelog

import (
	"github.com/bundlesmith/bundlesmith/pkg/changelog"
	"github.com/bundlesmith/bundlesmith/pkg/context"
)

// skipError signals an intentional skip. It satisfies the pipe.IsSkip interface
// checked by the pipeline runner, without importing pkg/pipe (which would cause
// an import cycle through pkg/pipe/registry.go).
type skipError string

func (e skipError) Error() string { return string(e) }
func (e skipError) IsSkip() bool  { return true }

// CheckPipe validates changelog configuration.
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating changelog configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	if ctx.Config.Changelog.Disable {
		return skipError("changelog disabled")
	}

	if _, err := changelog.New(ctx.Config.Changelog); err != nil {
		return err
	}

	ctx.Logger.Debug("Changelog configuration validated successfully")
	return nil
}
