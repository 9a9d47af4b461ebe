package cli

import (
	"errors"
	"os"

	"github.com/bundlesmith/bundlesmith/pkg/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an example configuration",
	Long: `Write an example .bundlesmith.yaml covering the project, runtime,
installer, signing, notarization, changelog and release sections. Secrets
are referenced as env(...) so the file can be committed.`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	logger := SetupLogger(GetDebugMode())
	configPath := GetConfigPath()
	force, _ := cmd.Flags().GetBool("force")

	created, err := writeExampleConfig(configPath, force)
	if err != nil {
		ExitWithErrorf(logger, "Failed to save configuration: %v", err)
	}
	if !created {
		logger.Infof("Configuration file %s already exists (use --force to overwrite)", configPath)
		return
	}

	logger.Infof("Example configuration created: %s", configPath)
	logger.Info("Edit it to match your project, then run: bundlesmith check")
}

// writeExampleConfig writes the example unless path exists and force is
// unset. It reports whether a file was written.
func writeExampleConfig(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := config.SaveConfig(path, config.ExampleConfig()); err != nil {
		return false, err
	}
	return true, nil
}
