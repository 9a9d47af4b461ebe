package notarize

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/bundlesmith/bundlesmith/pkg/checksum"
	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptedResult(t *testing.T) *Result {
	t.Helper()
	artifact := writeArtifact(t)
	sum, err := checksum.File(artifact)
	require.NoError(t, err)
	return &Result{SubmissionID: testSubmissionID, Artifact: artifact, SHA256: sum, Status: StatusAccepted}
}

func TestStaple(t *testing.T) {
	result := acceptedResult(t)
	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return runner.Output("The staple and validate action worked!"), nil
	})

	require.NoError(t, NewStapler(r, quietLogger()).Staple(context.Background(), result))
	assert.Len(t, r.CallsMatching("xcrun", "stapler", "staple", result.Artifact), 1)
}

func TestStaplePreconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, res *Result) *Result
		wantErr error
		wantMsg string
	}{
		{
			name:    "nil result",
			mutate:  func(*testing.T, *Result) *Result { return nil },
			wantMsg: "no notarization result",
		},
		{
			name: "rejected",
			mutate: func(_ *testing.T, res *Result) *Result {
				res.Status = StatusRejected
				return res
			},
			wantMsg: "notarization status is Rejected",
		},
		{
			name: "timed out",
			mutate: func(_ *testing.T, res *Result) *Result {
				res.Status = StatusTimedOut
				return res
			},
			wantMsg: "notarization status is Timed Out",
		},
		{
			name: "modified after submission",
			mutate: func(t *testing.T, res *Result) *Result {
				require.NoError(t, os.WriteFile(res.Artifact, []byte("re-signed disk image"), 0644))
				return res
			},
			wantErr: ErrArtifactModified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runner.NewMockRunner(nil)
			res := tt.mutate(t, acceptedResult(t))

			err := NewStapler(r, quietLogger()).Staple(context.Background(), res)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Empty(t, r.Calls(), "stapler must not run when its precondition fails")
		})
	}
}

func TestStapleMissingTicket(t *testing.T) {
	r := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return runner.Fail(65, "CloudKit query for Demo-1.0.dmg failed. Could not find ticket."), nil
	})

	err := NewStapler(r, quietLogger()).Staple(context.Background(), acceptedResult(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticket")
	assert.Contains(t, err.Error(), testSubmissionID)
}

func TestAssess(t *testing.T) {
	assert.Equal(t,
		[]string{"--assess", "--type", "open", "--context", "context:primary-signature", "--verbose", "Demo-1.0.dmg"},
		BuildAssessArgs("Demo-1.0.dmg"))
	assert.Equal(t,
		[]string{"--assess", "--type", "execute", "--verbose", "Demo.app"},
		BuildAssessArgs("Demo.app"))

	ok := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return &runner.Result{Stderr: "Demo-1.0.dmg: accepted\nsource=Notarized Developer ID"}, nil
	})
	out, err := Assess(context.Background(), ok, "Demo-1.0.dmg")
	require.NoError(t, err)
	assert.Contains(t, out, "Notarized Developer ID")

	rejected := runner.NewMockRunner(func(string, []string) (*runner.Result, error) {
		return runner.Fail(3, "Demo-1.0.dmg: rejected"), nil
	})
	_, err = Assess(context.Background(), rejected, "Demo-1.0.dmg")
	assert.ErrorContains(t, err, "Gatekeeper rejected")
}
