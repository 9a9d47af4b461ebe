// Package jpackage produces the platform installers. The host platform picks
// exactly one branch: an MSI/EXE on Windows, an app image zip plus a deb or
// rpm on Linux, a DMG on macOS.
package jpackage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/archive"
	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/jpackage"
	"github.com/bundlesmith/bundlesmith/pkg/sign"
	"github.com/bundlesmith/bundlesmith/pkg/validate"
)

// Pipe runs jpackage for the host platform.
type Pipe struct{}

func (Pipe) String() string { return "packaging installers" }

func (Pipe) Run(ctx *context.Context) error {
	cfg, err := packagingConfig(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Dest, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.Dest, err)
	}

	switch ctx.Platform {
	case detect.Windows:
		return packageWindows(ctx, cfg)
	case detect.Linux:
		return packageLinux(ctx, cfg)
	case detect.Mac:
		return packageMac(ctx, cfg)
	default:
		return fmt.Errorf("unsupported platform %q — packaging runs on windows, linux or darwin", ctx.Platform)
	}
}

func packagingConfig(ctx *context.Context) (jpackage.Config, error) {
	if ctx.Artifacts.RuntimeImage == "" {
		return jpackage.Config{}, fmt.Errorf("no runtime image found — ensure the jlink step completed successfully")
	}
	if ctx.Version == "" {
		return jpackage.Config{}, fmt.Errorf("no version resolved — set project.version or tag the repository")
	}

	p := ctx.Config.Project
	return jpackage.NewConfig(jpackage.Config{
		Name:         p.Name,
		Version:      ctx.Version,
		Module:       p.Module,
		MainModule:   p.MainModule,
		Icon:         p.Icon,
		ResourceDir:  p.ResourceDir,
		ModulePath:   p.ModulePath,
		RuntimeImage: ctx.Artifacts.RuntimeImage,
		Dest:         ctx.Config.Build.Dist(),
	})
}

func packageWindows(ctx *context.Context, cfg jpackage.Config) error {
	win := ctx.Config.Windows
	v := jpackage.WindowsVariant(jpackage.WindowsOptions{
		InstallerType: win.InstallerType,
		UpgradeUUID:   win.UpgradeUUID,
		MenuGroup:     win.MenuGroup,
	})

	if err := run(ctx, v, cfg); err != nil {
		return err
	}

	installer := cfg.ArtifactPath(v.PackageType())
	if err := validate.ExistingFile(installer, "windows installer"); err != nil {
		return fmt.Errorf("jpackage did not produce the expected installer: %w", err)
	}
	ctx.Artifacts.Installers = append(ctx.Artifacts.Installers, installer)
	return nil
}

func packageLinux(ctx *context.Context, cfg jpackage.Config) error {
	// jpackage refuses to overwrite an existing app image
	appDir := cfg.AppImageDir()
	if err := os.RemoveAll(appDir); err != nil {
		return fmt.Errorf("failed to remove stale app image %s: %w", appDir, err)
	}

	if err := run(ctx, jpackage.AppImageVariant(), cfg); err != nil {
		return err
	}
	if err := validate.ExistingDir(appDir, "app image"); err != nil {
		return fmt.Errorf("jpackage did not produce the app image: %w", err)
	}
	ctx.Artifacts.AppImageDir = appDir

	zipPath := cfg.ArtifactPath("zip")
	ctx.Logger.Infof("Zipping %s", appDir)
	if err := archive.ZipDir(appDir, zipPath); err != nil {
		return fmt.Errorf("failed to zip app image: %w", err)
	}
	ctx.Artifacts.ZipPath = zipPath

	format, err := detect.SelectLinuxFormat(ctx.StdCtx, ctx.Runner, detect.LinuxFormat(ctx.Config.Linux.Format))
	if err != nil {
		return err
	}
	ctx.Logger.WithField("format", format).Info("Selected Linux package format")

	opts := jpackage.LinuxOptions{
		Maintainer: ctx.Config.Linux.Maintainer,
		MenuGroup:  ctx.Config.Linux.MenuGroup,
	}
	v := jpackage.DebVariant(opts)
	if format == detect.Rpm {
		v = jpackage.RpmVariant(opts)
	}

	// deb and rpm names are chosen by jpackage, so find them by extension
	ext := "." + v.PackageType()
	if err := removeMatching(cfg.Dest, ext); err != nil {
		return err
	}
	if err := run(ctx, v, cfg); err != nil {
		return err
	}
	produced, err := filepath.Glob(filepath.Join(cfg.Dest, "*"+ext))
	if err != nil {
		return fmt.Errorf("failed to list %s packages: %w", ext, err)
	}
	if len(produced) == 0 {
		return fmt.Errorf("jpackage produced no %s package in %s", ext, cfg.Dest)
	}
	ctx.Artifacts.Installers = append(ctx.Artifacts.Installers, produced...)
	return nil
}

func packageMac(ctx *context.Context, cfg jpackage.Config) error {
	mac := ctx.Config.Mac
	v := jpackage.MacVariant(jpackage.MacOptions{
		PackageIdentifier: mac.PackageIdentifier,
		PackageName:       mac.PackageName,
		SigningKeyUser:    sign.SigningKeyUser(mac.DeveloperID),
	})

	if err := run(ctx, v, cfg); err != nil {
		return err
	}

	dmg := cfg.ArtifactPath("dmg")
	if err := validate.ExistingFile(dmg, "disk image"); err != nil {
		return fmt.Errorf("jpackage did not produce the expected disk image: %w", err)
	}
	ctx.Artifacts.DMGPath = dmg
	ctx.Artifacts.Installers = append(ctx.Artifacts.Installers, dmg)
	return nil
}

func run(ctx *context.Context, v jpackage.Variant, cfg jpackage.Config) error {
	ctx.Logger.Infof("Running jpackage --type %s", v.PackageType())
	result, err := jpackage.Run(ctx.StdCtx, ctx.Runner, v, cfg)
	if err != nil {
		return err
	}
	if out := strings.TrimSpace(result.Stdout); out != "" {
		ctx.Logger.Debug(out)
	}
	return nil
}

func removeMatching(dir, ext string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return fmt.Errorf("failed to list %s packages: %w", ext, err)
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("failed to remove stale package %s: %w", f, err)
		}
	}
	return nil
}
