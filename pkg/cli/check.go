package cli

import (
	"github.com/bundlesmith/bundlesmith/pkg/config"
	bsContext "github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/pipeline"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Long: `Load the configuration, substitute env(...) references and run every
validation step without invoking jlink, jpackage or any signing tool.
Steps that do not apply to this host or configuration are reported as
skipped.`,
	Args: cobra.NoArgs,
	Run:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	logger := SetupLogger(GetDebugMode())
	configPath := GetConfigPath()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		ExitWithErrorf(logger, "Failed to load configuration: %v", err)
	}

	stdCtx, stop := signalContext()
	ctx := bsContext.NewContext(stdCtx, cfg, logger)
	if ctx.Platform == "" {
		logger.Warn("This host cannot build installers; only the configuration is checked")
	} else {
		logger.WithField("platform", ctx.Platform).Debug("Checking configuration for host")
	}

	err = pipeline.RunValidation(ctx)
	stop()
	if err != nil {
		ExitWithErrorf(logger, "%s is invalid: %v", configPath, err)
	}
	logger.Infof("%s is valid", configPath)
}
