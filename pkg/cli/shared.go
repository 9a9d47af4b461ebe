package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bundlesmith/bundlesmith/pkg/config"
	bsContext "github.com/bundlesmith/bundlesmith/pkg/context"
	gh "github.com/bundlesmith/bundlesmith/pkg/github"
	"github.com/bundlesmith/bundlesmith/pkg/logging"
	"github.com/bundlesmith/bundlesmith/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// SetupLogger creates and configures a logger based on debug mode
func SetupLogger(debug bool) *logrus.Logger {
	return logging.New(debug)
}

// ExitWithErrorf logs an error with the provided logger and exits with code 1
func ExitWithErrorf(logger *logrus.Logger, format string, args ...interface{}) {
	logger.Errorf(format, args...)
	os.Exit(1)
}

// signalContext is cancelled on SIGINT or SIGTERM. The pipeline stops before
// the next step; a native tool that is already running is left to finish.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// pipelineOption adjusts the context before the pipeline runs.
type pipelineOption func(*bsContext.Context)

func withSkipPublish() pipelineOption {
	return func(ctx *bsContext.Context) { ctx.SkipPublish = true }
}

func withSkipNotarize() pipelineOption {
	return func(ctx *bsContext.Context) { ctx.SkipNotarize = true }
}

// runPipelineCommand loads the config, runs validation and execution pipes,
// and exits non-zero on failure.
func runPipelineCommand(name string, opts ...pipelineOption) {
	logger := SetupLogger(GetDebugMode())

	cfg, err := config.LoadConfig(GetConfigPath())
	if err != nil {
		ExitWithErrorf(logger, "Failed to load configuration: %v", err)
	}

	stdCtx, stop := signalContext()
	defer stop()

	ctx := bsContext.NewContext(stdCtx, cfg, logger)
	for _, opt := range opts {
		opt(ctx)
	}

	if err := setupGitHubClient(ctx); err != nil {
		ExitWithErrorf(logger, "%v", err)
	}

	start := time.Now()
	if err := pipeline.RunAll(ctx); err != nil {
		ExitWithErrorf(logger, "%s failed after %s: %v", name, formatDuration(time.Since(start)), err)
	}

	logger.Infof("%s succeeded after %s", name, formatDuration(time.Since(start)))
	for _, p := range ctx.Artifacts.Packages() {
		logger.Infof("  %s", p)
	}
	if ctx.Artifacts.ReleaseURL != "" {
		logger.Infof("Release: %s", ctx.Artifacts.ReleaseURL)
	}
}

// setupGitHubClient creates the release client when the run publishes.
func setupGitHubClient(ctx *bsContext.Context) error {
	cfg := ctx.Config.Release.GitHub
	if ctx.SkipPublish || !cfg.Enabled() {
		return nil
	}

	token := cfg.Token
	if token == "" {
		token = gh.GetGitHubToken()
	}
	client, err := gh.NewClient(token, gh.Endpoint{APIURL: cfg.APIURL, UploadURL: cfg.UploadURL})
	if err != nil {
		return err
	}
	ctx.GitHubClient = client
	return nil
}

// loadOptionalConfig loads path when it exists and falls back to defaults
// otherwise, for commands that work without a config file.
func loadOptionalConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return config.LoadConfig(path)
}

// formatDuration renders d for humans: "523ms", "45s", "1m32s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	d = d.Round(time.Second)
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)

	switch {
	case minutes == 0:
		return fmt.Sprintf("%ds", seconds)
	case seconds == 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}
