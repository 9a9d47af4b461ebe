package context

import (
	"context"

	"github.com/bundlesmith/bundlesmith/pkg/config"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/github"
	"github.com/bundlesmith/bundlesmith/pkg/notarize"
	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
)

// Artifacts holds paths produced by the pipeline. Each step fills in what it
// produced; later steps only read.
type Artifacts struct {
	StagedArtifact string // module jar copied into the module path
	RuntimeImage   string // jlink output
	AppImageDir    string // <dest>/<name> (linux)
	ZipPath        string // <dest>/<name>-<version>.zip (linux)
	DMGPath        string // <dest>/<name>-<version>.dmg (darwin)
	Installers     []string
	Notarization   *notarize.Result
	ChangelogPath  string
	ChecksumsPath  string
	ReleaseURL     string
}

// Packages lists the files to publish: the zipped app image, if any,
// followed by the installers.
func (a Artifacts) Packages() []string {
	var out []string
	if a.ZipPath != "" {
		out = append(out, a.ZipPath)
	}
	return append(out, a.Installers...)
}

// Context provides shared state for all pipes
type Context struct {
	StdCtx context.Context // Standard context for cancellation support
	Config *config.Config
	Logger *logrus.Logger
	Runner runner.Runner

	// Platform is fixed when the context is created and decides which
	// packaging branch runs.
	Platform detect.Platform

	// Version is the installer version, Tag the git tag it came from (if any).
	Version string
	Tag     string

	Artifacts Artifacts

	// ReleaseNotes is the generated changelog used as the release body.
	ReleaseNotes string

	SkipNotarize bool
	SkipPublish  bool

	GitHubClient github.ClientInterface
}

// NewContext creates a context for the host platform that runs commands with
// an ExecRunner. If stdCtx is nil, context.Background() is used.
func NewContext(stdCtx context.Context, cfg *config.Config, logger *logrus.Logger) *Context {
	if stdCtx == nil {
		stdCtx = context.Background()
	}
	// an unsupported host leaves Platform empty; the packaging step reports it
	platform, _ := detect.HostPlatform()
	return &Context{
		StdCtx:   stdCtx,
		Config:   cfg,
		Logger:   logger,
		Runner:   runner.ExecRunner{},
		Platform: platform,
	}
}

// Done returns the done channel from the standard context for cancellation support
func (c *Context) Done() <-chan struct{} {
	return c.StdCtx.Done()
}

// Err returns the error from the standard context
func (c *Context) Err() error {
	return c.StdCtx.Err()
}
