package changelog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/changelog"
	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/git"
)

// Pipe renders the commits since the previous tag into ctx.ReleaseNotes and
// <dist>/CHANGELOG.md. It only runs when publishing.
type Pipe struct{}

func (Pipe) String() string { return "generating changelog" }

func (Pipe) Run(ctx *context.Context) error {
	if ctx.Config.Changelog.Disable {
		return skipError("changelog disabled")
	}
	if ctx.SkipPublish {
		return skipError("release notes are only generated when publishing")
	}

	notes, err := changelog.New(ctx.Config.Changelog)
	if err != nil {
		return err
	}

	ref := ctx.Tag
	if ref == "" {
		ref = "HEAD"
	}

	prev, err := git.PreviousTag(ctx.StdCtx, ctx.Runner, ref)
	if err != nil {
		return err
	}
	subjects, err := git.Subjects(ctx.StdCtx, ctx.Runner, prev, ref)
	if err != nil {
		return err
	}
	if prev == "" {
		ctx.Logger.Infof("No earlier tag, using the full history (%d commits)", len(subjects))
	} else {
		ctx.Logger.WithField("since", prev).Infof("%d commits", len(subjects))
	}

	content := notes.Render(fmt.Sprintf("%s %s", ctx.Config.Project.Name, ctx.Version), subjects)
	ctx.ReleaseNotes = content

	dist := ctx.Config.Build.Dist()
	if err := os.MkdirAll(dist, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dist, err)
	}
	path := filepath.Join(dist, "CHANGELOG.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}

	ctx.Artifacts.ChangelogPath = path
	ctx.Logger.Infof("Changelog written to %s", path)
	return nil
}
