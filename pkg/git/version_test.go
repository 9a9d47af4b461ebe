package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

func TestResolveVersion(t *testing.T) {
	t.Run("single tag", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.commit("initial commit")
		repo.tag("v1.2.3")
		assertResolved(t, repo, "v1.2.3")
	})

	t.Run("newest tag wins", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.commit("initial commit")
		repo.tag("v1.0.0")
		repo.commit("add tray icon")
		repo.tag("v2.0.0")
		repo.commit("untagged work")
		assertResolved(t, repo, "v2.0.0")
	})

	t.Run("untagged", func(t *testing.T) {
		repo := newTestRepo(t)
		repo.commit("initial commit")
		_, err := ResolveVersion(context.Background(), repo.runner)
		if err == nil || !strings.Contains(err.Error(), "project.version") {
			t.Errorf("ResolveVersion() error = %v, want hint to set project.version", err)
		}
	})
}

func assertResolved(t *testing.T, repo *testRepo, want string) {
	t.Helper()
	got, err := ResolveVersion(context.Background(), repo.runner)
	if err != nil {
		t.Fatalf("ResolveVersion() error = %v", err)
	}
	if got != want {
		t.Errorf("ResolveVersion() = %q, want %q", got, want)
	}
}

func TestResolveVersionMock(t *testing.T) {
	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return runner.Output("v3.1.0\n"), nil
	})

	version, err := ResolveVersion(context.Background(), r)
	if err != nil {
		t.Fatalf("ResolveVersion() error = %v", err)
	}
	if version != "v3.1.0" {
		t.Errorf("ResolveVersion() = %q, want v3.1.0", version)
	}
	if len(r.CallsMatching("git", "describe", "--tags", "--abbrev=0")) != 1 {
		t.Errorf("unexpected calls: %v", r.Calls())
	}
}

func TestAppVersion(t *testing.T) {
	tests := []struct {
		tag     string
		want    string
		wantErr bool
	}{
		{tag: "v1.2.3", want: "1.2.3"},
		{tag: "1.0", want: "1.0"},
		{tag: "7", want: "7"},
		{tag: "v1.2.3-rc1", wantErr: true},
		{tag: "v1.2.3.4", wantErr: true},
		{tag: "release", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := AppVersion(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AppVersion(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("AppVersion(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestPreviousTagAndSubjects(t *testing.T) {
	repo := newTestRepo(t)
	repo.commit("initial commit")
	repo.tag("v1.0.0")
	repo.commit("feat: add tray icon")
	repo.commit("fix: resolve crash on startup")
	repo.tag("v2.0.0")
	ctx := context.Background()

	prev, err := PreviousTag(ctx, repo.runner, "v2.0.0")
	if err != nil {
		t.Fatalf("PreviousTag() error = %v", err)
	}
	if prev != "v1.0.0" {
		t.Errorf("PreviousTag() = %q, want v1.0.0", prev)
	}

	subjects, err := Subjects(ctx, repo.runner, prev, "v2.0.0")
	if err != nil {
		t.Fatalf("Subjects() error = %v", err)
	}
	want := []string{"fix: resolve crash on startup", "feat: add tray icon"}
	if strings.Join(subjects, "|") != strings.Join(want, "|") {
		t.Errorf("Subjects() = %q, want %q", subjects, want)
	}
}

func TestPreviousTagFirstRelease(t *testing.T) {
	repo := newTestRepo(t)
	repo.commit("initial commit")
	repo.tag("v1.0.0")
	ctx := context.Background()

	prev, err := PreviousTag(ctx, repo.runner, "v1.0.0")
	if err != nil {
		t.Fatalf("PreviousTag() error = %v", err)
	}
	if prev != "" {
		t.Errorf("PreviousTag() = %q, want empty", prev)
	}

	subjects, err := Subjects(ctx, repo.runner, "", "v1.0.0")
	if err != nil {
		t.Fatalf("Subjects() error = %v", err)
	}
	if len(subjects) != 1 || subjects[0] != "initial commit" {
		t.Errorf("Subjects() = %q, want [initial commit]", subjects)
	}
}

func TestSubjectsMock(t *testing.T) {
	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return runner.Output("fix: b\n\nfeat: a\n"), nil
	})

	subjects, err := Subjects(context.Background(), r, "v1.0", "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 2 || subjects[0] != "fix: b" {
		t.Errorf("Subjects() = %q", subjects)
	}
	if len(r.CallsMatching("git", "log", "v1.0..HEAD")) != 1 {
		t.Errorf("unexpected calls: %v", r.Calls())
	}
}

// testRepo is a scratch repository driven through the same runner the
// package uses. Tests skip when git is unavailable.
type testRepo struct {
	t      *testing.T
	runner runner.ExecRunner
	n      int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := &testRepo{t: t, runner: runner.ExecRunner{Dir: t.TempDir()}}
	repo.git("init", "--quiet", "--template=")
	repo.git("config", "user.email", "ci@bundlesmith.invalid")
	repo.git("config", "user.name", "bundlesmith ci")
	repo.git("config", "commit.gpgsign", "false")
	return repo
}

func (r *testRepo) git(args ...string) {
	r.t.Helper()
	if _, err := r.runner.Run(context.Background(), "git", args...); err != nil {
		r.t.Fatalf("git %s: %v", strings.Join(args, " "), err)
	}
}

// commit records a change to a fresh file so every commit is non-empty.
func (r *testRepo) commit(subject string) {
	r.t.Helper()
	r.n++
	name := fmt.Sprintf("change-%d.txt", r.n)
	if err := os.WriteFile(filepath.Join(r.runner.Dir, name), []byte(subject+"\n"), 0o644); err != nil {
		r.t.Fatal(err)
	}
	r.git("add", name)
	r.git("commit", "--quiet", "-m", subject)
}

func (r *testRepo) tag(name string) {
	r.t.Helper()
	r.git("tag", name)
}
