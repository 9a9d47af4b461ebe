package pipe

import (
	"github.com/bundlesmith/bundlesmith/internal/pipe/changelog"
	"github.com/bundlesmith/bundlesmith/internal/pipe/jlink"
	"github.com/bundlesmith/bundlesmith/internal/pipe/jpackage"
	"github.com/bundlesmith/bundlesmith/internal/pipe/notarize"
	"github.com/bundlesmith/bundlesmith/internal/pipe/project"
	"github.com/bundlesmith/bundlesmith/internal/pipe/release"
	"github.com/bundlesmith/bundlesmith/internal/pipe/sign"
	"github.com/bundlesmith/bundlesmith/internal/pipe/stage"
	"github.com/bundlesmith/bundlesmith/internal/pipe/staple"
)

// ValidationPipes contains all validation pipes, run by check and as the
// first stage of package/release.
var ValidationPipes = []Piper{
	project.CheckPipe{},   // Validate project config
	jlink.CheckPipe{},     // Validate runtime modules
	jpackage.CheckPipe{},  // Validate installer config
	sign.CheckPipe{},      // Validate signing config
	notarize.CheckPipe{},  // Validate notarization config
	changelog.CheckPipe{}, // Validate changelog filters and groups
	release.CheckPipe{},   // Validate release config
}

// ExecutionPipes contains all execution pipes, run after validation
// succeeds in package/release commands. Platform-specific pipes skip
// themselves on other hosts.
var ExecutionPipes = []Piper{
	project.Pipe{},   // Resolve installer version
	stage.Pipe{},     // Copy module jar into the module path
	jlink.Pipe{},     // Link the runtime image
	jpackage.Pipe{},  // Build installers for the host platform
	sign.Pipe{},      // Sign the DMG (macOS)
	notarize.Pipe{},  // Submit and poll (macOS)
	staple.Pipe{},    // Staple ticket, assess (macOS)
	changelog.Pipe{}, // Release notes since the previous tag
	release.Pipe{},   // Create GitHub release and upload assets
}
