package cli

import (
	"github.com/spf13/cobra"
)

// releaseCmd represents the release command
var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Package and publish to GitHub",
	Long: `Run the complete release process.
This packages, signs and notarizes the installers like the package command
and uploads them with a checksums file to the GitHub release for the
version tag. Requires GITHUB_TOKEN or release.github.token.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPipelineCommand("Release")
	},
}
