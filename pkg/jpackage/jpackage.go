// Package jpackage builds and runs jpackage invocations for every supported
// installer type.
//
// A Variant selects one of a closed set of installer kinds and carries only
// the options that kind needs. BuildArgs always emits the shared base
// arguments first and then appends the variant's extras, so a variant can
// never drop or reorder a base argument.
package jpackage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// Kind enumerates the installer kinds jpackage is asked to produce.
type Kind int

const (
	Windows Kind = iota
	LinuxAppImage
	LinuxDeb
	LinuxRpm
	Mac
)

func (k Kind) String() string {
	switch k {
	case Windows:
		return "windows"
	case LinuxAppImage:
		return "app-image"
	case LinuxDeb:
		return "deb"
	case LinuxRpm:
		return "rpm"
	case Mac:
		return "mac"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// WindowsOptions are the Windows-only jpackage settings.
type WindowsOptions struct {
	InstallerType string // "msi" (default) or "exe"
	UpgradeUUID   string // --win-upgrade-uuid
	MenuGroup     string // --win-menu-group
}

// LinuxOptions are the deb/rpm settings. Maintainer only applies to deb.
type LinuxOptions struct {
	Maintainer string // --linux-deb-maintainer
	MenuGroup  string // --linux-menu-group
}

// MacOptions are the macOS settings.
type MacOptions struct {
	PackageIdentifier string // --mac-package-identifier
	PackageName       string // --mac-package-name
	SigningKeyUser    string // --mac-signing-key-user-name, enables --mac-sign
}

// Variant is a tagged installer variant. Only the options matching Kind are read.
type Variant struct {
	Kind    Kind
	Windows WindowsOptions
	Linux   LinuxOptions
	Mac     MacOptions
}

// WindowsVariant returns a Windows installer variant.
func WindowsVariant(opts WindowsOptions) Variant { return Variant{Kind: Windows, Windows: opts} }

// AppImageVariant returns a Linux app image variant.
func AppImageVariant() Variant { return Variant{Kind: LinuxAppImage} }

// DebVariant returns a Debian package variant.
func DebVariant(opts LinuxOptions) Variant { return Variant{Kind: LinuxDeb, Linux: opts} }

// RpmVariant returns an RPM package variant.
func RpmVariant(opts LinuxOptions) Variant { return Variant{Kind: LinuxRpm, Linux: opts} }

// MacVariant returns a macOS disk image variant.
func MacVariant(opts MacOptions) Variant { return Variant{Kind: Mac, Mac: opts} }

// PackageType is the value passed to --type.
func (v Variant) PackageType() string {
	switch v.Kind {
	case Windows:
		if v.Windows.InstallerType != "" {
			return v.Windows.InstallerType
		}
		return "msi"
	case LinuxAppImage:
		return "app-image"
	case LinuxDeb:
		return "deb"
	case LinuxRpm:
		return "rpm"
	case Mac:
		return "dmg"
	default:
		return ""
	}
}

// BuildArgs returns the complete jpackage argument list: base arguments
// followed by the variant's platform arguments.
func BuildArgs(v Variant, cfg Config) []string {
	args := baseArgs(v.PackageType(), cfg)
	return append(args, v.extraArgs()...)
}

// baseArgs are shared by every variant, in a fixed order.
func baseArgs(packageType string, cfg Config) []string {
	args := []string{
		"--type", packageType,
		"--name", cfg.Name,
		"--app-version", cfg.Version,
		"--module", cfg.MainModule,
		"--module-path", strings.Join(cfg.ModulePath, string(os.PathListSeparator)),
		"--dest", cfg.Dest,
		"--runtime-image", cfg.RuntimeImage,
	}
	if cfg.Icon != "" {
		args = append(args, "--icon", cfg.Icon)
	}
	if cfg.ResourceDir != "" {
		args = append(args, "--resource-dir", cfg.ResourceDir)
	}
	return args
}

func (v Variant) extraArgs() []string {
	var args []string

	switch v.Kind {
	case Windows:
		if v.Windows.UpgradeUUID != "" {
			args = append(args, "--win-upgrade-uuid", v.Windows.UpgradeUUID)
		}
		if v.Windows.MenuGroup != "" {
			args = append(args, "--win-menu", "--win-menu-group", v.Windows.MenuGroup)
		}
		args = append(args, "--win-shortcut")

	case LinuxDeb, LinuxRpm:
		args = append(args, "--linux-shortcut")
		if v.Linux.MenuGroup != "" {
			args = append(args, "--linux-menu-group", v.Linux.MenuGroup)
		}
		if v.Kind == LinuxDeb && v.Linux.Maintainer != "" {
			args = append(args, "--linux-deb-maintainer", v.Linux.Maintainer)
		}

	case Mac:
		if v.Mac.PackageIdentifier != "" {
			args = append(args, "--mac-package-identifier", v.Mac.PackageIdentifier)
		}
		if v.Mac.PackageName != "" {
			args = append(args, "--mac-package-name", v.Mac.PackageName)
		}
		if v.Mac.SigningKeyUser != "" {
			args = append(args, "--mac-sign", "--mac-signing-key-user-name", v.Mac.SigningKeyUser)
		}
	}

	return args
}

// Run invokes jpackage for v. A non-zero exit comes back as a wrapped
// *runner.ExitError with the captured stderr; it is never retried.
func Run(ctx context.Context, r runner.Runner, v Variant, cfg Config) (*runner.Result, error) {
	result, err := r.Run(ctx, "jpackage", BuildArgs(v, cfg)...)
	if err != nil {
		return result, fmt.Errorf("jpackage (%s) failed: %w", v.Kind, err)
	}
	return result, nil
}
