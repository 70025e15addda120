package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaymesh/app-scribe/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.VersionString())
	},
}

func init() {
	root.AddCommand(versionCmd)
}
