// Package release publishes the produced installers as GitHub release assets.
package release

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/checksum"
	"github.com/bundlesmith/bundlesmith/pkg/context"
	gh "github.com/bundlesmith/bundlesmith/pkg/github"
	"github.com/google/go-github/github"
)

// skipError signals an intentional skip. It satisfies the pipe.IsSkip interface
// checked by the pipeline runner, without importing pkg/pipe (which would cause
// an import cycle through pkg/pipe/registry.go).
type skipError string

func (e skipError) Error() string { return string(e) }
func (e skipError) IsSkip() bool  { return true }

// Pipe creates (or reuses) the GitHub release for the version tag and uploads
// every package plus a checksums file.
type Pipe struct{}

func (Pipe) String() string { return "publishing GitHub release" }

func (Pipe) Run(ctx *context.Context) error {
	if ctx.SkipPublish {
		return skipError("publishing skipped")
	}

	cfg := ctx.Config.Release.GitHub
	if !cfg.Enabled() {
		return skipError("no release.github target configured")
	}

	packages := regularFiles(ctx, ctx.Artifacts.Packages())
	if len(packages) == 0 {
		return fmt.Errorf("no packages to release — ensure the packaging step completed successfully")
	}

	if ctx.GitHubClient == nil {
		return fmt.Errorf("GitHub client not initialized — set GITHUB_TOKEN or release.github.token")
	}

	dist := ctx.Config.Build.Dist()
	if err := os.MkdirAll(dist, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dist, err)
	}
	sumsName := fmt.Sprintf("%s-%s-checksums.txt", ctx.Config.Project.Name, ctx.Version)
	sums, err := checksum.WriteSums(filepath.Join(dist, sumsName), packages)
	if err != nil {
		return err
	}
	ctx.Artifacts.ChecksumsPath = sums

	tag := ctx.Tag
	if tag == "" {
		tag = "v" + ctx.Version
	}

	release, err := getOrCreateRelease(ctx, cfg.Owner, cfg.Repo, tag)
	if err != nil {
		return err
	}

	for _, asset := range append(packages, sums) {
		ctx.Logger.Infof("Uploading %s", filepath.Base(asset))
		if _, err := ctx.GitHubClient.UploadReleaseAsset(ctx.StdCtx, cfg.Owner, cfg.Repo, release.GetID(), asset, gh.ContentTypeForAsset(asset)); err != nil {
			return fmt.Errorf("failed to upload asset %s: %w", filepath.Base(asset), err)
		}
	}

	ctx.Artifacts.ReleaseURL = release.GetHTMLURL()
	ctx.Logger.Infof("Release published: %s", ctx.Artifacts.ReleaseURL)
	return nil
}

func getOrCreateRelease(ctx *context.Context, owner, repo, tag string) (*github.RepositoryRelease, error) {
	existing, err := ctx.GitHubClient.GetRelease(ctx.StdCtx, owner, repo, tag)
	if err == nil {
		ctx.Logger.Infof("Adding assets to existing release %s", tag)
		return existing, nil
	}
	if !gh.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up GitHub release %s: %w", tag, err)
	}

	name := fmt.Sprintf("%s %s", ctx.Config.Project.Name, ctx.Version)
	release := &github.RepositoryRelease{
		TagName: github.String(tag),
		Name:    github.String(name),
		Draft:   github.Bool(ctx.Config.Release.GitHub.Draft),
	}
	if ctx.ReleaseNotes != "" {
		release.Body = github.String(ctx.ReleaseNotes)
	}
	created, err := ctx.GitHubClient.CreateRelease(ctx.StdCtx, owner, repo, release)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub release %s: %w", tag, err)
	}
	ctx.Logger.Infof("Created release %s", name)
	return created, nil
}

// regularFiles drops anything that cannot be uploaded as a single asset.
func regularFiles(ctx *context.Context, paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			ctx.Logger.Warnf("Skipping %s: not a regular file", p)
			continue
		}
		out = append(out, p)
	}
	return out
}
