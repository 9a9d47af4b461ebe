package cli

import (
	"github.com/spf13/cobra"
)

// packageCmd represents the package command
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Build installers without publishing",
	Long: `Build native installers for the host platform.
This links the runtime image, runs jpackage (MSI/EXE on Windows, app image
zip plus deb or rpm on Linux, DMG on macOS) and, on macOS, signs,
notarizes and staples the disk image. Nothing is published.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := []pipelineOption{withSkipPublish()}
		if skip, _ := cmd.Flags().GetBool("skip-notarize"); skip {
			opts = append(opts, withSkipNotarize())
		}
		runPipelineCommand("Package", opts...)
	},
}
