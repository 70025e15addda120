package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaymesh/app-scribe/github"
)

// tokenCmd resolves an installation token and prints it, for use by other
// tooling (e.g. as a git credential). The token is short-lived.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Resolve an installation access token for the configured organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		issuer, err := github.NewTokenIssuer(
			appConfig.App,
			github.WithIssuerLogger(logger),
			github.WithIssuerMetrics(metrics),
		)
		if err != nil {
			return err
		}

		token, err := issuer.IssueToken(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	root.AddCommand(tokenCmd)
}
