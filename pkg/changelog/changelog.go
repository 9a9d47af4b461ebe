// Package changelog turns commit subjects into markdown release notes.
package changelog

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/config"
)

// Notes renders release notes according to a changelog configuration. All
// expressions are compiled up front, so a Notes value never fails to render.
type Notes struct {
	ascending bool
	include   []*regexp.Regexp
	exclude   []*regexp.Regexp
	groups    []group
}

type group struct {
	title string
	re    *regexp.Regexp // nil collects unmatched commits
}

// New compiles cfg. Errors name the offending config key.
func New(cfg config.ChangelogConfig) (*Notes, error) {
	switch strings.ToLower(cfg.Sort) {
	case "", "desc", "asc":
	default:
		return nil, fmt.Errorf("changelog.sort must be \"asc\" or \"desc\", got %q", cfg.Sort)
	}

	include, err := compileAll("changelog.filters.include", cfg.Filters.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll("changelog.filters.exclude", cfg.Filters.Exclude)
	if err != nil {
		return nil, err
	}

	ordered := slices.Clone(cfg.Groups)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	groups := make([]group, 0, len(ordered))
	for i, g := range ordered {
		if g.Title == "" {
			return nil, fmt.Errorf("changelog.groups[%d]: title is required", i)
		}
		var re *regexp.Regexp
		if g.Regexp != "" {
			if re, err = regexp.Compile(g.Regexp); err != nil {
				return nil, fmt.Errorf("changelog.groups[%d]: invalid regexp %q: %w", i, g.Regexp, err)
			}
		}
		groups = append(groups, group{title: g.Title, re: re})
	}

	return &Notes{
		ascending: strings.EqualFold(cfg.Sort, "asc"),
		include:   include,
		exclude:   exclude,
		groups:    groups,
	}, nil
}

func compileAll(key string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid regex %q: %w", key, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Render formats commits (newest first, as git log prints them) under a
// "## title" heading.
func (n *Notes) Render(title string, commits []string) string {
	selected := n.filter(commits)
	if n.ascending {
		slices.Reverse(selected)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", title)

	if len(n.groups) == 0 {
		b.WriteByte('\n')
		writeItems(&b, selected)
		return b.String()
	}

	buckets := make([][]string, len(n.groups))
	for _, c := range selected {
		if i := n.groupFor(c); i >= 0 {
			buckets[i] = append(buckets[i], c)
		}
	}
	for i, g := range n.groups {
		if len(buckets[i]) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", g.title)
		writeItems(&b, buckets[i])
	}
	return b.String()
}

func (n *Notes) filter(commits []string) []string {
	var out []string
	for _, c := range commits {
		if len(n.include) > 0 && !matchesAny(n.include, c) {
			continue
		}
		if matchesAny(n.exclude, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// groupFor returns the first group whose expression matches, else the first
// catch-all group, else -1 and the commit is left out.
func (n *Notes) groupFor(commit string) int {
	catchAll := -1
	for i, g := range n.groups {
		if g.re == nil {
			if catchAll < 0 {
				catchAll = i
			}
			continue
		}
		if g.re.MatchString(commit) {
			return i
		}
	}
	return catchAll
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func writeItems(b *strings.Builder, commits []string) {
	for _, c := range commits {
		fmt.Fprintf(b, "- %s\n", c)
	}
}
