package jpackage

import (
	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// CheckPipe validates installer configuration for every platform, so a
// config checked on one host is known to be usable on the others.
type CheckPipe struct{}

func (CheckPipe) String() string { return "validating installer configuration" }

func (CheckPipe) Run(ctx *context.Context) error {
	win := ctx.Config.Windows
	if err := validate.OneOf(win.InstallerType, []string{"msi", "exe"}, "windows.installer_type"); err != nil {
		return err
	}
	if err := validate.UUID(win.UpgradeUUID, "windows.upgrade_uuid"); err != nil {
		return err
	}

	formats := []string{string(detect.Auto), string(detect.Deb), string(detect.Rpm)}
	if err := validate.OneOf(ctx.Config.Linux.Format, formats, "linux.format"); err != nil {
		return err
	}

	ctx.Logger.Debug("Installer configuration validated successfully")
	return nil
}
