package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
	"github.com/bundlesmith/bundlesmith/pkg/sign"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign <app> <launcher>",
	Short: "Sign an app bundle and its embedded runtime",
	Long: `Sign every file of a macOS app bundle with a hardened-runtime
signature, then re-sign the runtime executables and the launcher with
their entitlements. The launcher may be given relative to the bundle,
e.g. Contents/MacOS/Demo. Built-in entitlements are used unless
mac.entitlements points at custom files.`,
	Args: cobra.ExactArgs(2),
	Run:  runSign,
}

// unsignCmd represents the unsign command
var unsignCmd = &cobra.Command{
	Use:   "unsign <app>",
	Short: "Remove signatures from an app bundle's embedded runtime",
	Long: `Strip the code signature from every file in the embedded runtime of
an app bundle. Running it on an unsigned bundle is not an error.`,
	Args: cobra.ExactArgs(1),
	Run:  runUnsign,
}

// signOptions collects the settings for signing one bundle.
type signOptions struct {
	Identity             string
	RuntimeDir           string
	BatchSize            int
	RuntimeEntitlements  string
	LauncherEntitlements string
}

func runSign(cmd *cobra.Command, args []string) {
	logger := SetupLogger(GetDebugMode())

	cfg, err := loadOptionalConfig(GetConfigPath())
	if err != nil {
		ExitWithErrorf(logger, "Failed to load configuration: %v", err)
	}

	opts := signOptions{
		Identity:             cfg.Mac.DeveloperID,
		RuntimeDir:           cfg.Mac.RuntimeDir,
		RuntimeEntitlements:  cfg.Mac.Entitlements.Runtime,
		LauncherEntitlements: cfg.Mac.Entitlements.Launcher,
	}
	if id, _ := cmd.Flags().GetString("identity"); id != "" {
		opts.Identity = id
	}
	if dir, _ := cmd.Flags().GetString("runtime-dir"); dir != "" {
		opts.RuntimeDir = dir
	}
	opts.BatchSize, _ = cmd.Flags().GetInt("batch-size")

	stdCtx, stop := signalContext()
	err = signBundle(stdCtx, runner.ExecRunner{}, logger, opts, args[0], args[1])
	stop()
	if err != nil {
		ExitWithErrorf(logger, "Signing failed: %v", err)
	}
}

// signBundle signs app and verifies the result. Default entitlements are
// written to a temporary directory for the duration of the call.
func signBundle(ctx context.Context, r runner.Runner, logger *logrus.Logger, opts signOptions, app, launcher string) error {
	identity := sign.CertificateName(opts.Identity)
	if identity == "" {
		return fmt.Errorf("a signing identity is required — set mac.developer_id or pass --identity")
	}

	if opts.RuntimeEntitlements == "" || opts.LauncherEntitlements == "" {
		defaults, err := sign.WriteDefaultEntitlements()
		if err != nil {
			return err
		}
		defer func() {
			if err := defaults.Cleanup(); err != nil {
				logger.Warnf("Failed to remove %s: %v", defaults.Dir, err)
			}
		}()
		if opts.RuntimeEntitlements == "" {
			opts.RuntimeEntitlements = defaults.Runtime
		}
		if opts.LauncherEntitlements == "" {
			opts.LauncherEntitlements = defaults.Launcher
		}
	}

	s := sign.New(r, logger, sign.Identity{
		ID:                   identity,
		RuntimeEntitlements:  opts.RuntimeEntitlements,
		LauncherEntitlements: opts.LauncherEntitlements,
	}, app, resolveLauncher(app, launcher))
	if opts.RuntimeDir != "" {
		s.RuntimeDir = opts.RuntimeDir
	}
	if opts.BatchSize > 0 {
		s.BatchSize = opts.BatchSize
	}

	logger.Infof("Signing %s as %s", app, identity)
	if err := s.Sign(ctx); err != nil {
		return err
	}

	logger.Info("Verifying signature")
	if err := sign.Verify(ctx, r, app); err != nil {
		return err
	}

	logger.Infof("Signed and verified: %s", app)
	return nil
}

// resolveLauncher accepts a launcher path relative to the bundle.
func resolveLauncher(app, launcher string) string {
	if filepath.IsAbs(launcher) {
		return launcher
	}
	inBundle := filepath.Join(app, launcher)
	if _, err := os.Stat(inBundle); err == nil {
		return inBundle
	}
	return launcher
}

func runUnsign(cmd *cobra.Command, args []string) {
	logger := SetupLogger(GetDebugMode())
	runtimeDir, _ := cmd.Flags().GetString("runtime-dir")

	stdCtx, stop := signalContext()
	err := unsignBundle(stdCtx, runner.ExecRunner{}, logger, args[0], runtimeDir)
	stop()
	if err != nil {
		ExitWithErrorf(logger, "Removing signatures failed: %v", err)
	}
}

func unsignBundle(ctx context.Context, r runner.Runner, logger *logrus.Logger, app, runtimeDir string) error {
	s := sign.New(r, logger, sign.Identity{}, app, "")
	if runtimeDir != "" {
		s.RuntimeDir = runtimeDir
	}

	if err := s.RemoveSignature(ctx); err != nil {
		return err
	}
	logger.Infof("Signatures removed from %s", filepath.Join(app, s.RuntimeDir))
	return nil
}
