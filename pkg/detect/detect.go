// Package detect inspects the build host: which operating system branch the
// pipeline takes and which Linux package format the host can build.
package detect

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// Platform identifies the host operating system branch of the pipeline.
type Platform string

const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	Mac     Platform = "darwin"
)

// HostPlatform maps runtime.GOOS to a Platform. Unsupported hosts return an error.
func HostPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// ParsePlatform maps a GOOS-style name to a Platform.
func ParsePlatform(goos string) (Platform, error) {
	switch Platform(goos) {
	case Windows, Linux, Mac:
		return Platform(goos), nil
	default:
		return "", fmt.Errorf("unsupported host operating system %q — packaging runs on windows, linux or darwin", goos)
	}
}

// LinuxFormat is an installer format jpackage can produce on Linux.
type LinuxFormat string

const (
	Auto LinuxFormat = "auto"
	Deb  LinuxFormat = "deb"
	Rpm  LinuxFormat = "rpm"
)

// ErrNoLinuxFormat is returned when neither dpkg nor rpm is available on the host.
var ErrNoLinuxFormat = errors.New("could find neither dpkg nor rpm on this host — install one of them to build a deb or rpm package")

// Detector reports whether the host can build one package format.
type Detector struct {
	Format LinuxFormat
	Tool   string
}

// DebDetector probes for dpkg.
var DebDetector = Detector{Format: Deb, Tool: "dpkg"}

// RpmDetector probes for rpm.
var RpmDetector = Detector{Format: Rpm, Tool: "rpm"}

// Available runs "<tool> --version" and reports whether it succeeded.
func (d Detector) Available(ctx context.Context, r runner.Runner) bool {
	_, err := r.Run(ctx, d.Tool, "--version")
	return err == nil
}

// SelectLinuxFormat resolves the Linux package format. An explicit deb or rpm
// is returned as is; auto probes dpkg first, then rpm.
func SelectLinuxFormat(ctx context.Context, r runner.Runner, configured LinuxFormat) (LinuxFormat, error) {
	switch configured {
	case Deb, Rpm:
		return configured, nil
	case Auto, "":
	default:
		return "", fmt.Errorf("unknown linux format %q", configured)
	}

	for _, d := range []Detector{DebDetector, RpmDetector} {
		if d.Available(ctx, r) {
			return d.Format, nil
		}
	}
	return "", ErrNoLinuxFormat
}
