// Package version carries the build metadata printed by --version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const Name = "bundlesmith"

// Set at build time with -ldflags "-X github.com/bundlesmith/bundlesmith/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// VersionInfo describes this build. Binaries installed with `go install`
// carry no ldflags, so their module version and VCS revision are used.
func VersionInfo() string {
	v, commit := Version, Commit
	if info, ok := debug.ReadBuildInfo(); ok {
		v, commit = fromBuildInfo(info, v, commit)
	}
	return fmt.Sprintf("%s %s\ncommit %s, built %s with %s for %s/%s",
		Name, v, commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func fromBuildInfo(info *debug.BuildInfo, v, commit string) (string, string) {
	if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	if commit == "unknown" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				commit = s.Value[:12]
			}
		}
	}
	return v, commit
}
