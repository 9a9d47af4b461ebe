package sign

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bundleFixture struct {
	root     string
	launcher string
	identity Identity
}

// newBundle lays out a minimal jpackage-style app bundle with an embedded runtime.
func newBundle(t *testing.T) bundleFixture {
	t.Helper()

	dir := t.TempDir()
	root := filepath.Join(dir, "Demo.app")
	files := map[string]os.FileMode{
		"Contents/Info.plist":                             0644,
		"Contents/MacOS/Demo":                             0755,
		"Contents/app/demo.jar":                           0644,
		"Contents/runtime/Contents/Home/bin/java":         0755,
		"Contents/runtime/Contents/Home/bin/jrunscript":   0755,
		"Contents/runtime/Contents/Home/bin/keytool":      0755,
		"Contents/runtime/Contents/Home/lib/libjli.dylib": 0644,
	}
	for rel, mode := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(rel), mode))
	}

	runtimeEnt := filepath.Join(dir, "runtime.entitlements")
	launcherEnt := filepath.Join(dir, "launcher.entitlements")
	require.NoError(t, DefaultRuntimeEntitlements.Write(runtimeEnt))
	require.NoError(t, DefaultLauncherEntitlements.Write(launcherEnt))

	return bundleFixture{
		root:     root,
		launcher: filepath.Join(root, "Contents", "MacOS", "Demo"),
		identity: Identity{
			ID:                   "Developer ID Application: Demo Corp (TEAM42)",
			RuntimeEntitlements:  runtimeEnt,
			LauncherEntitlements: launcherEnt,
		},
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSigner(r runner.Runner, b bundleFixture) *Signer {
	return New(r, quietLogger(), b.identity, b.root, b.launcher)
}

func TestSignPhaseOrder(t *testing.T) {
	b := newBundle(t)
	r := runner.NewMockRunner(nil)

	require.NoError(t, newSigner(r, b).Sign(context.Background()))

	calls := r.Calls()
	require.Len(t, calls, 3)

	// sign-all: every regular file, no entitlements
	assert.Equal(t, "codesign", calls[0].Name)
	assert.False(t, calls[0].HasArg("--entitlements"))
	assert.Len(t, calls[0].Args, 2+len(defaultCodesignArgs)+7)

	// runtime executables with runtime entitlements
	assert.True(t, calls[1].HasArg(b.identity.RuntimeEntitlements))
	for _, p := range RuntimeExecutablePaths(filepath.Join(b.root, DefaultRuntimeDir)) {
		assert.True(t, calls[1].HasArg(p), "runtime call missing %s", p)
	}

	// launcher last with launcher entitlements
	assert.True(t, calls[2].HasArg(b.identity.LauncherEntitlements))
	assert.Equal(t, b.launcher, calls[2].Args[len(calls[2].Args)-1])
}

func TestSignAllDeepestFirst(t *testing.T) {
	b := newBundle(t)
	r := runner.NewMockRunner(nil)

	require.NoError(t, newSigner(r, b).Sign(context.Background()))

	targets := r.Calls()[0].Args[2+len(defaultCodesignArgs):]
	infoPlist := filepath.Join(b.root, "Contents", "Info.plist")
	java := filepath.Join(b.root, "Contents", "runtime", "Contents", "Home", "bin", "java")

	assert.Equal(t, infoPlist, targets[len(targets)-1])
	assert.Less(t, indexOf(targets, java), indexOf(targets, b.launcher))
}

func TestSignBatches(t *testing.T) {
	b := newBundle(t)
	r := runner.NewMockRunner(nil)

	s := newSigner(r, b)
	s.BatchSize = 3
	require.NoError(t, s.Sign(context.Background()))

	// 7 files in batches of 3, then runtime and launcher
	assert.Len(t, r.Calls(), 5)
}

func TestSignStopsAtFailingPhase(t *testing.T) {
	tests := []struct {
		name      string
		failWhen  func(b bundleFixture, args []string) bool
		wantPhase Phase
		wantCalls int
	}{
		{
			name:      "sign-all fails",
			failWhen:  func(_ bundleFixture, args []string) bool { return !contains(args, "--entitlements") },
			wantPhase: PhaseSignAll,
			wantCalls: 1,
		},
		{
			name: "runtime executables fail",
			failWhen: func(b bundleFixture, args []string) bool {
				return contains(args, b.identity.RuntimeEntitlements)
			},
			wantPhase: PhaseSignRuntime,
			wantCalls: 2,
		},
		{
			name: "launcher fails",
			failWhen: func(b bundleFixture, args []string) bool {
				return contains(args, b.identity.LauncherEntitlements)
			},
			wantPhase: PhaseSignLauncher,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBundle(t)
			r := runner.NewMockRunner(func(name string, args []string) (*runner.Result, error) {
				if tt.failWhen(b, args) {
					return runner.Fail(1, "errSecInternalComponent"), nil
				}
				return runner.Output(""), nil
			})

			err := newSigner(r, b).Sign(context.Background())
			require.Error(t, err)

			var pe *PhaseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantPhase, pe.Phase)
			assert.Contains(t, err.Error(), "errSecInternalComponent")
			assert.Len(t, r.Calls(), tt.wantCalls)
		})
	}
}

func TestSignVerifyFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, b *bundleFixture)
		wantErr string
	}{
		{
			name: "launcher not executable",
			mutate: func(t *testing.T, b *bundleFixture) {
				require.NoError(t, os.Chmod(b.launcher, 0644))
			},
			wantErr: ErrNotExecutable.Error(),
		},
		{
			name: "missing runtime entitlements",
			mutate: func(_ *testing.T, b *bundleFixture) {
				b.identity.RuntimeEntitlements = filepath.Join(filepath.Dir(b.root), "missing.entitlements")
			},
			wantErr: "runtime entitlements",
		},
		{
			name: "missing bundle",
			mutate: func(_ *testing.T, b *bundleFixture) {
				b.root = filepath.Join(filepath.Dir(b.root), "Other.app")
			},
			wantErr: "app bundle",
		},
		{
			name: "empty identity",
			mutate: func(_ *testing.T, b *bundleFixture) {
				b.identity.ID = ""
			},
			wantErr: "signing identity is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBundle(t)
			tt.mutate(t, &b)
			r := runner.NewMockRunner(nil)

			err := newSigner(r, b).Sign(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var pe *PhaseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, PhaseVerify, pe.Phase)
			assert.Empty(t, r.Calls(), "no commands may run when verification fails")
		})
	}
}

func TestSignNotExecutableIsSentinel(t *testing.T) {
	b := newBundle(t)
	require.NoError(t, os.Chmod(b.launcher, 0600))

	err := newSigner(runner.NewMockRunner(nil), b).Sign(context.Background())
	assert.True(t, errors.Is(err, ErrNotExecutable))
}

func TestSignSkipsMissingRuntimeExecutable(t *testing.T) {
	b := newBundle(t)
	keytool := filepath.Join(b.root, "Contents", "runtime", "Contents", "Home", "bin", "keytool")
	require.NoError(t, os.Remove(keytool))
	r := runner.NewMockRunner(nil)

	require.NoError(t, newSigner(r, b).Sign(context.Background()))

	runtimeCall := r.Calls()[1]
	assert.False(t, runtimeCall.HasArg(keytool))
	assert.True(t, runtimeCall.HasArg(filepath.Join(b.root, "Contents", "runtime", "Contents", "Home", "bin", "java")))
}

func TestSignStderrOnSuccessIsNotFatal(t *testing.T) {
	b := newBundle(t)
	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return &runner.Result{Stderr: "replacing existing signature"}, nil
	})

	assert.NoError(t, newSigner(r, b).Sign(context.Background()))
	assert.Len(t, r.Calls(), 3)
}

func TestRemoveSignatureIdempotent(t *testing.T) {
	b := newBundle(t)
	r := runner.NewMockRunner(nil)
	s := newSigner(r, b)

	require.NoError(t, s.RemoveSignature(context.Background()))
	require.NoError(t, s.RemoveSignature(context.Background()))

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].String(), calls[1].String())

	runtimeRoot := filepath.Join(b.root, DefaultRuntimeDir)
	assert.Equal(t, "find", calls[0].Name)
	assert.Equal(t, BuildRemoveSignatureArgs(runtimeRoot), calls[0].Args)
}

func TestRemoveSignatureMissingRuntime(t *testing.T) {
	b := newBundle(t)
	require.NoError(t, os.RemoveAll(filepath.Join(b.root, DefaultRuntimeDir)))
	r := runner.NewMockRunner(nil)

	err := newSigner(r, b).RemoveSignature(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedded runtime")
	assert.Empty(t, r.Calls())
}

func TestBuildSignArgs(t *testing.T) {
	got := BuildSignArgs("Developer ID Application: X (T)", "rt.entitlements", "a", "b")
	want := []string{
		"-s", "Developer ID Application: X (T)",
		"-v", "--timestamp", "--force", "--options", "runtime",
		"--entitlements", "rt.entitlements",
		"a", "b",
	}
	assert.Equal(t, want, got)

	got = BuildSignArgs("id", "", "x.dmg")
	assert.Equal(t, []string{"-s", "id", "-v", "--timestamp", "--force", "--options", "runtime", "x.dmg"}, got)
}

func TestSignDMG(t *testing.T) {
	dmg := filepath.Join(t.TempDir(), "Demo-1.0.dmg")
	require.NoError(t, os.WriteFile(dmg, []byte("dmg"), 0644))

	r := runner.NewMockRunner(nil)
	require.NoError(t, SignDMG(context.Background(), r, quietLogger(), "Developer ID Application: X (T)", dmg))

	calls := r.CallsMatching("codesign", "--timestamp", dmg)
	require.Len(t, calls, 1)
	assert.False(t, calls[0].HasArg("--entitlements"))

	err := SignDMG(context.Background(), r, quietLogger(), "id", filepath.Join(t.TempDir(), "missing.dmg"))
	require.Error(t, err)
	assert.Len(t, r.Calls(), 1)
}

func TestSignDMGLogsStderrAsWarning(t *testing.T) {
	dmg := filepath.Join(t.TempDir(), "Demo-1.0.dmg")
	require.NoError(t, os.WriteFile(dmg, []byte("dmg"), 0644))

	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return &runner.Result{Stderr: dmg + ": replacing existing signature\n"}, nil
	})
	logger, hook := logtest.NewNullLogger()

	require.NoError(t, SignDMG(context.Background(), r, logger, "Developer ID Application: X (T)", dmg))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Contains(t, entry.Message, "replacing existing signature")
}

func TestVerify(t *testing.T) {
	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return runner.Fail(3, "Demo.app: a sealed resource is missing or invalid"), nil
	})

	err := Verify(context.Background(), r, "Demo.app")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "sealed resource"))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func contains(list []string, s string) bool { return indexOf(list, s) >= 0 }
