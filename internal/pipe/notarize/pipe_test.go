package notarize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bundlesmith/bundlesmith/pkg/config"
	bsCtx "github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/detect"
	"github.com/bundlesmith/bundlesmith/pkg/notarize"
	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rejectionLog = `{
  "jobId": "2efe2717-52ef-43a5-96dc-0797e4ca1041",
  "status": "Invalid",
  "statusSummary": "Archive contains critical validation errors",
  "statusCode": 4000,
  "issues": [
    {"severity": "error", "path": "Demo-1.0.dmg/Demo.app/Contents/runtime/Contents/Home/bin/java", "message": "The signature does not include a secure timestamp."}
  ]
}`

func newContext(t *testing.T, handler runner.HandlerFunc) (*bsCtx.Context, *runner.MockRunner) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg := &config.Config{
		Mac: config.MacConfig{DeveloperID: "Example Corp (TEAM123456)"},
		Notarize: config.NotarizeConfig{
			KeychainProfile: "notary",
			PollInterval:    "0s",
			MaxAttempts:     3,
		},
	}
	ctx := bsCtx.NewContext(context.Background(), cfg, logger)
	ctx.Platform = detect.Mac

	dmg := filepath.Join(t.TempDir(), "Demo-1.0.dmg")
	require.NoError(t, os.WriteFile(dmg, []byte("dmg"), 0644))
	ctx.Artifacts.DMGPath = dmg

	mock := runner.NewMockRunner(handler)
	ctx.Runner = mock
	return ctx, mock
}

func TestPipeAccepted(t *testing.T) {
	ctx, mock := newContext(t, notarize.SimulateService([]string{"In Progress", "Accepted"}, "", nil))

	require.NoError(t, Pipe{}.Run(ctx))

	result := ctx.Artifacts.Notarization
	require.NotNil(t, result)
	assert.Equal(t, notarize.StatusAccepted, result.Status)
	assert.Equal(t, notarize.MockSubmissionID, result.SubmissionID)
	assert.Equal(t, 2, result.Attempts)
	assert.Len(t, mock.CallsMatching("xcrun", "submit", "--keychain-profile", "notary"), 1)
}

func TestPipeRejected(t *testing.T) {
	ctx, mock := newContext(t, notarize.SimulateService([]string{"Invalid"}, rejectionLog, nil))

	err := Pipe{}.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, notarize.ErrRejected))
	assert.Contains(t, err.Error(), "secure timestamp")

	assert.Len(t, mock.CallsMatching("xcrun", "info"), 1)
	assert.Len(t, mock.CallsMatching("xcrun", "log"), 1)
	require.NotNil(t, ctx.Artifacts.Notarization)
	assert.Equal(t, notarize.StatusRejected, ctx.Artifacts.Notarization.Status)
}

func TestPipeTimedOut(t *testing.T) {
	ctx, mock := newContext(t, notarize.SimulateService([]string{"In Progress"}, "", nil))

	err := Pipe{}.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, notarize.ErrTimedOut))
	assert.False(t, errors.Is(err, notarize.ErrRejected))
	assert.Len(t, mock.CallsMatching("xcrun", "info"), 3)
	assert.Equal(t, notarize.StatusTimedOut, ctx.Artifacts.Notarization.Status)
}

func TestPipeSubmitFailure(t *testing.T) {
	ctx, mock := newContext(t, func(name string, args []string) (*runner.Result, error) {
		return runner.Fail(69, "Error: HTTP status code: 401. Unable to authenticate."), nil
	})

	err := Pipe{}.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to authenticate")
	// no retry and no polling after a failed submission
	assert.Len(t, mock.Calls(), 1)
	assert.Nil(t, ctx.Artifacts.Notarization)
}

func TestPipeSkips(t *testing.T) {
	isSkip := func(err error) bool {
		var s interface{ IsSkip() bool }
		return errors.As(err, &s) && s.IsSkip()
	}

	ctx, mock := newContext(t, nil)
	ctx.Platform = detect.Windows
	assert.True(t, isSkip(Pipe{}.Run(ctx)))

	ctx.Platform = detect.Mac
	ctx.SkipNotarize = true
	assert.True(t, isSkip(Pipe{}.Run(ctx)))

	ctx.SkipNotarize = false
	ctx.Config.Notarize.KeychainProfile = ""
	assert.True(t, isSkip(Pipe{}.Run(ctx)))

	assert.Empty(t, mock.Calls())
}

func TestPipeString(t *testing.T) {
	if got := (Pipe{}).String(); got != "notarizing disk image" {
		t.Errorf("String() = %q, want %q", got, "notarizing disk image")
	}
}
