// Package notarize submits signed artifacts to Apple's notary service with
// xcrun notarytool, waits for a verdict and staples the resulting ticket.
package notarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bundlesmith/bundlesmith/pkg/checksum"
	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"howett.net/plist"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultMaxAttempts  = 120
)

var (
	// ErrRejected means the service examined the artifact and refused it.
	// Fix the artifact before resubmitting.
	ErrRejected = errors.New("notarization rejected")
	// ErrTimedOut means no verdict arrived within the attempt budget. The
	// submission may still complete; waiting longer or resubmitting can help.
	ErrTimedOut = errors.New("notarization timed out")
	// ErrArtifactModified means the artifact changed after it was submitted.
	ErrArtifactModified = errors.New("artifact modified after notarization")
)

var (
	submissionIDRe = regexp.MustCompile(`id:\s*([0-9a-fA-F-]{36})`)
	statusRe       = regexp.MustCompile(`(?m)^\s*status:\s*(.+?)\s*$`)
)

// Status is the state of a submission.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusAccepted
	StatusRejected
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	case StatusTimedOut:
		return "Timed Out"
	default:
		return "Pending"
	}
}

// Terminal reports whether polling stops at s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusTimedOut
}

// ParseStatus maps a notarytool status string to a Status. Unknown values
// count as pending.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in progress":
		return StatusInProgress
	case "accepted":
		return StatusAccepted
	case "invalid", "rejected":
		return StatusRejected
	default:
		return StatusPending
	}
}

// Request is one artifact to notarize with the stored keychain credential profile.
type Request struct {
	Artifact        string
	KeychainProfile string
}

// Result is the outcome of a submission. SHA256 is the artifact checksum at
// submission time; the stapler refuses to run if the artifact changed since.
type Result struct {
	SubmissionID string
	Artifact     string
	SHA256       string
	Status       Status
	Attempts     int
	Log          *Log
}

// Log is the diagnostic report of `notarytool log`.
type Log struct {
	JobID         string  `json:"jobId"`
	Status        string  `json:"status"`
	StatusSummary string  `json:"statusSummary"`
	StatusCode    int     `json:"statusCode"`
	SHA256        string  `json:"sha256"`
	Issues        []Issue `json:"issues"`
}

// Issue is one problem reported in a notarization log.
type Issue struct {
	Severity     string `json:"severity"`
	Code         string `json:"code"`
	Path         string `json:"path"`
	Message      string `json:"message"`
	DocURL       string `json:"docUrl"`
	Architecture string `json:"architecture"`
}

func (l *Log) String() string {
	var b strings.Builder
	b.WriteString(l.StatusSummary)
	for _, issue := range l.Issues {
		fmt.Fprintf(&b, "\n  - %s: %s", issue.Path, issue.Message)
	}
	return b.String()
}

// submitOutput and infoOutput mirror notarytool's --output-format plist.
type submitOutput struct {
	ID      string `plist:"id"`
	Message string `plist:"message"`
	Path    string `plist:"path"`
}

type infoOutput struct {
	ID      string `plist:"id"`
	Name    string `plist:"name"`
	Status  string `plist:"status"`
	Message string `plist:"message"`
}

// Notarizer drives the submit and poll cycle.
type Notarizer struct {
	Runner       runner.Runner
	Logger       logrus.FieldLogger
	PollInterval time.Duration
	MaxAttempts  int

	// wait pauses between polls; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a Notarizer with the default poll interval and attempt budget.
func New(r runner.Runner, logger logrus.FieldLogger) *Notarizer {
	return &Notarizer{
		Runner:       r,
		Logger:       logger,
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
		wait:         sleepContext,
	}
}

// Notarize submits the artifact and polls until a verdict or the attempt
// budget runs out. The returned Result is non-nil whenever submission
// succeeded. Rejection wraps ErrRejected and a missing verdict wraps
// ErrTimedOut.
func (n *Notarizer) Notarize(ctx context.Context, req Request) (*Result, error) {
	if req.KeychainProfile == "" {
		return nil, fmt.Errorf("keychain profile is required — create one with: xcrun notarytool store-credentials")
	}
	if _, err := os.Stat(req.Artifact); err != nil {
		return nil, fmt.Errorf("artifact %s not found: %w", req.Artifact, err)
	}

	sum, err := checksum.File(req.Artifact)
	if err != nil {
		return nil, err
	}

	id, err := n.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	n.Logger.Infof("Submitted %s (id %s)", req.Artifact, id)

	result := &Result{
		SubmissionID: id,
		Artifact:     req.Artifact,
		SHA256:       sum,
		Status:       StatusPending,
	}

	attempts := n.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := n.Info(ctx, id, req.KeychainProfile)
		if err != nil {
			return result, err
		}
		result.Attempts = attempt
		result.Status = status
		n.Logger.Debugf("Notarization status after attempt %d/%d: %s", attempt, attempts, status)

		if status.Terminal() {
			if status == StatusAccepted {
				return result, nil
			}
			return result, n.rejected(ctx, result, req.KeychainProfile)
		}

		if attempt < attempts {
			if err := n.waitFn()(ctx, n.PollInterval); err != nil {
				return result, fmt.Errorf("notarization wait interrupted: %w", err)
			}
		}
	}

	result.Status = StatusTimedOut
	return result, fmt.Errorf("%w: no verdict for submission %s after %d attempts — check later with: xcrun notarytool info %s --keychain-profile %s",
		ErrTimedOut, id, attempts, id, req.KeychainProfile)
}

// rejected fetches the diagnostic log for a rejected submission and wraps
// ErrRejected with it.
func (n *Notarizer) rejected(ctx context.Context, result *Result, profile string) error {
	id := result.SubmissionID
	log, err := n.Log(ctx, id, profile)
	if err != nil {
		n.Logger.Warnf("Could not fetch notarization log: %v", err)
		return fmt.Errorf("%w: submission %s — run: xcrun notarytool log %s --keychain-profile %s",
			ErrRejected, id, id, profile)
	}
	result.Log = log
	return fmt.Errorf("%w: submission %s: %s", ErrRejected, id, log)
}

// Submit uploads the artifact and returns the service-assigned submission id.
// Failures are returned as is; there is no retry at this layer.
func (n *Notarizer) Submit(ctx context.Context, req Request) (string, error) {
	result, err := n.Runner.Run(ctx, "xcrun", BuildSubmitArgs(req.Artifact, req.KeychainProfile)...)
	if err != nil {
		if exitErr, ok := runner.IsExitError(err); ok && strings.Contains(exitErr.Result.Stderr, "No Keychain password item found") {
			return "", fmt.Errorf("keychain profile %q not found — create it with: xcrun notarytool store-credentials %s", req.KeychainProfile, req.KeychainProfile)
		}
		return "", fmt.Errorf("notarytool submit failed: %w", err)
	}

	id := parseSubmitOutput(result.Stdout)
	if id == "" {
		return "", fmt.Errorf("notarytool submit returned no submission id: %s", strings.TrimSpace(result.Stdout))
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("notarytool returned malformed submission id %q: %w", id, err)
	}
	return id, nil
}

// Info queries the current status of a submission.
func (n *Notarizer) Info(ctx context.Context, id, profile string) (Status, error) {
	result, err := n.Runner.Run(ctx, "xcrun", BuildInfoArgs(id, profile)...)
	if err != nil {
		return StatusPending, fmt.Errorf("notarytool info failed: %w", err)
	}
	return ParseStatus(parseInfoOutput(result.Stdout)), nil
}

// Log fetches the diagnostic log of a finished submission.
func (n *Notarizer) Log(ctx context.Context, id, profile string) (*Log, error) {
	result, err := n.Runner.Run(ctx, "xcrun", BuildLogArgs(id, profile)...)
	if err != nil {
		return nil, fmt.Errorf("notarytool log failed: %w", err)
	}

	var log Log
	if err := json.Unmarshal([]byte(result.Stdout), &log); err != nil {
		return nil, fmt.Errorf("failed to parse notarization log: %w", err)
	}
	return &log, nil
}

func (n *Notarizer) waitFn() func(context.Context, time.Duration) error {
	if n.wait == nil {
		return sleepContext
	}
	return n.wait
}

// BuildSubmitArgs returns the xcrun arguments for submitting an artifact.
func BuildSubmitArgs(artifact, profile string) []string {
	return []string{
		"notarytool", "submit", artifact,
		"--keychain-profile", profile,
		"--output-format", "plist",
	}
}

// BuildInfoArgs returns the xcrun arguments for one status poll.
func BuildInfoArgs(id, profile string) []string {
	return []string{
		"notarytool", "info", id,
		"--keychain-profile", profile,
		"--output-format", "plist",
	}
}

// BuildLogArgs returns the xcrun arguments for fetching a submission log.
func BuildLogArgs(id, profile string) []string {
	return []string{"notarytool", "log", id, "--keychain-profile", profile}
}

// ParseSubmissionID extracts the submission UUID from notarytool text output.
// Returns an empty string if no UUID is found.
func ParseSubmissionID(output string) string {
	matches := submissionIDRe.FindStringSubmatch(output)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

func parseSubmitOutput(output string) string {
	var out submitOutput
	if _, err := plist.Unmarshal([]byte(output), &out); err == nil && out.ID != "" {
		return out.ID
	}
	return ParseSubmissionID(output)
}

func parseInfoOutput(output string) string {
	var out infoOutput
	if _, err := plist.Unmarshal([]byte(output), &out); err == nil && out.Status != "" {
		return out.Status
	}
	if m := statusRe.FindStringSubmatch(output); len(m) == 2 {
		return m[1]
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
