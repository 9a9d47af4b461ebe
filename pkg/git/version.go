// Package git derives release metadata from the repository being packaged.
package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// appVersionPattern is what jpackage accepts for --app-version: one to
// three dot-separated numbers.
var appVersionPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

// ResolveVersion returns the latest tag reachable from HEAD using
// `git describe --tags --abbrev=0`.
func ResolveVersion(ctx context.Context, r runner.Runner) (string, error) {
	result, err := r.Run(ctx, "git", "describe", "--tags", "--abbrev=0")
	if err != nil {
		if exitErr, ok := runner.IsExitError(err); ok {
			stderr := exitErr.Result.Stderr
			if strings.Contains(stderr, "No names found") || strings.Contains(stderr, "No tags") || strings.Contains(stderr, "fatal") {
				return "", fmt.Errorf("no git tags found — tag your release with `git tag v1.0.0` or set project.version")
			}
		}
		return "", fmt.Errorf("failed to resolve version from git tags: %w", err)
	}

	version := strings.TrimSpace(result.Stdout)
	if version == "" {
		return "", fmt.Errorf("no git tags found — tag your release with `git tag v1.0.0` or set project.version")
	}

	return version, nil
}

// AppVersion turns a tag such as "v1.2.3" into the numeric form jpackage
// requires.
func AppVersion(tag string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if !appVersionPattern.MatchString(v) {
		return "", fmt.Errorf("version %q is not usable as an installer version — use up to three numbers, e.g. 1.2.3", tag)
	}
	return v, nil
}

// PreviousTag returns the newest tag reachable from ref's parent, or "" when
// ref is the first tagged release.
func PreviousTag(ctx context.Context, r runner.Runner, ref string) (string, error) {
	result, err := r.Run(ctx, "git", "describe", "--tags", "--abbrev=0", ref+"^")
	if err != nil {
		if exitErr, ok := runner.IsExitError(err); ok {
			stderr := exitErr.Result.Stderr
			// no older tag, or ref is the root commit
			if strings.Contains(stderr, "No names found") || strings.Contains(stderr, "No tags") ||
				strings.Contains(stderr, "cannot describe") || strings.Contains(stderr, "Not a valid object name") {
				return "", nil
			}
		}
		return "", fmt.Errorf("failed to find tag before %s: %w", ref, err)
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Subjects returns the commit subjects in from..to, newest first. An empty
// from lists the whole history of to.
func Subjects(ctx context.Context, r runner.Runner, from, to string) ([]string, error) {
	rng := to
	if from != "" {
		rng = from + ".." + to
	}
	result, err := r.Run(ctx, "git", "log", "--no-merges", "--pretty=format:%s", rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read git log %s: %w", rng, err)
	}

	var subjects []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects, nil
}
