package cmd

import (
	"fmt"

	"github.com/MrArkon/Rustic/rustic"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the application",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf(
			"version=%s commit=%s built: %s",
			rustic.Version,
			rustic.CommitSHA,
			rustic.BuildTime,
		)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
