package cli

import (
	"context"
	"fmt"

	"github.com/bundlesmith/bundlesmith/pkg/config"
	"github.com/bundlesmith/bundlesmith/pkg/notarize"
	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// notarizeCmd represents the notarize command
var notarizeCmd = &cobra.Command{
	Use:   "notarize <artifact>",
	Short: "Notarize and staple a signed artifact",
	Long: `Submit a signed DMG, zip or pkg to the Apple notary service, wait for
a verdict and staple the ticket. Credentials come from a keychain profile
created with: xcrun notarytool store-credentials <profile>`,
	Args: cobra.ExactArgs(1),
	Run:  runNotarize,
}

func runNotarize(cmd *cobra.Command, args []string) {
	logger := SetupLogger(GetDebugMode())

	cfg, err := loadOptionalConfig(GetConfigPath())
	if err != nil {
		ExitWithErrorf(logger, "Failed to load configuration: %v", err)
	}
	if profile, _ := cmd.Flags().GetString("keychain-profile"); profile != "" {
		cfg.Notarize.KeychainProfile = profile
	}
	staple, _ := cmd.Flags().GetBool("staple")

	stdCtx, stop := signalContext()
	err = notarizeArtifact(stdCtx, runner.ExecRunner{}, logger, cfg.Notarize, args[0], staple)
	stop()
	if err != nil {
		ExitWithErrorf(logger, "Notarization failed: %v", err)
	}
}

// notarizeArtifact submits artifact, waits for acceptance and optionally
// staples and assesses it.
func notarizeArtifact(ctx context.Context, r runner.Runner, logger *logrus.Logger, cfg config.NotarizeConfig, artifact string, staple bool) error {
	if cfg.KeychainProfile == "" {
		return fmt.Errorf("a keychain profile is required — set notarize.keychain_profile or pass --keychain-profile")
	}

	interval, err := cfg.Interval()
	if err != nil {
		return err
	}

	n := notarize.New(r, logger)
	n.PollInterval = interval
	n.MaxAttempts = cfg.MaxAttempts

	logger.Infof("Submitting %s to Apple notary service (this may take several minutes)...", artifact)
	result, err := n.Notarize(ctx, notarize.Request{Artifact: artifact, KeychainProfile: cfg.KeychainProfile})
	if err != nil {
		return err
	}
	logger.Infof("Notarization accepted (id %s)", result.SubmissionID)

	if !staple {
		return nil
	}
	if err := notarize.NewStapler(r, logger).Staple(ctx, result); err != nil {
		return err
	}
	logger.Infof("Stapled %s", artifact)

	if cfg.VerifyGatekeeper {
		output, err := notarize.Assess(ctx, r, artifact)
		if err != nil {
			return err
		}
		logger.Debug(output)
	}
	return nil
}
