package cli

import (
	"fmt"
	"os"

	"github.com/bundlesmith/bundlesmith/pkg/config"
	"github.com/bundlesmith/bundlesmith/pkg/sign"
	"github.com/bundlesmith/bundlesmith/pkg/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     version.Name,
	Short:   "Native installers for modular Java applications",
	Version: version.VersionInfo(),
	Long: `Bundlesmith packages a modular application and a jlink runtime into
native installers: MSI/EXE on Windows, app image zip plus deb or rpm on
Linux, and a signed, notarized DMG on macOS. It can also publish the
installers to a GitHub release.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			fmt.Fprintf(os.Stderr, "Error displaying help: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	registerCommands()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	return rootCmd.Execute()
}

// registerCommands initializes flags and registers all subcommands
func registerCommands() {
	// Set up persistent flags
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug mode")

	// Add all subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(unsignCmd)
	rootCmd.AddCommand(notarizeCmd)

	initCmd.Flags().Bool("force", false, "overwrite an existing configuration file")

	// --skip-notarize is available on package only; a release is always notarized
	packageCmd.Flags().Bool("skip-notarize", false, "skip notarization (for quick local pipeline validation)")

	signCmd.Flags().String("identity", "", "signing identity (defaults to mac.developer_id)")
	signCmd.Flags().String("runtime-dir", "", "embedded runtime relative to the bundle (defaults to mac.runtime_dir)")
	signCmd.Flags().Int("batch-size", 0, "maximum files per codesign call")

	unsignCmd.Flags().String("runtime-dir", sign.DefaultRuntimeDir, "embedded runtime relative to the bundle")

	notarizeCmd.Flags().String("keychain-profile", "", "notarytool keychain profile (defaults to notarize.keychain_profile)")
	notarizeCmd.Flags().Bool("staple", true, "staple the ticket after acceptance")
}

// GetConfigPath returns the config file path from flags
func GetConfigPath() string {
	configPath, _ := rootCmd.PersistentFlags().GetString("config")
	return configPath
}

// GetDebugMode returns debug mode flag value
func GetDebugMode() bool {
	debug, _ := rootCmd.PersistentFlags().GetBool("debug")
	return debug
}
