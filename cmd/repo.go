package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaymesh/app-scribe/github"
)

var (
	repoMax      int
	repoPRState  string
	cloneBranch  string
	keepCloneDir bool
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Inspect repositories in the configured organization",
}

var repoStatsCmd = &cobra.Command{
	Use:   "stats <owner> <repo>",
	Short: "Show repository statistics",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			stats, err := client.GetRepositoryStats(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		})
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list [org]",
	Short: "List repositories in an organization",
	Long:  "List repositories in an organization. Defaults to the organization the App is installed on.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		org := appConfig.App.Org
		if len(args) > 0 {
			org = args[0]
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			repos, err := client.ListOrgRepos(cmd.Context(), org, repoMax)
			if err != nil {
				return err
			}
			for _, repo := range repos {
				fmt.Fprintln(cmd.OutOrStdout(), repo.GetFullName())
			}
			return nil
		})
	},
}

var repoPRsCmd = &cobra.Command{
	Use:   "prs <owner> <repo>",
	Short: "List pull requests in a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			prs, err := client.GetPullRequests(cmd.Context(), args[0], args[1], repoPRState, repoMax)
			if err != nil {
				return err
			}
			for _, pr := range prs {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\n", pr.GetNumber(), pr.GetState(), pr.GetTitle())
			}
			return nil
		})
	},
}

var repoCloneCmd = &cobra.Command{
	Use:   "clone <owner> <repo>",
	Short: "Clone a repository using the installation token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			repo, path, err := client.CloneRepo(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !keepCloneDir {
				defer func() {
					if rmErr := os.RemoveAll(path); rmErr != nil {
						logger.Warn().Err(rmErr).Str("path", path).Msg("Failed to clean up clone")
					}
				}()
			}

			if cloneBranch != "" {
				if err := client.CheckoutBranch(repo, cloneBranch); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity the current token authenticates as",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			info, err := client.GetUserInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		})
	},
}

func printJSON(cmd *cobra.Command, value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func init() {
	repoListCmd.Flags().IntVar(&repoMax, "max", 0, "Maximum number of results (0 for all)")
	repoPRsCmd.Flags().IntVar(&repoMax, "max", 0, "Maximum number of results (0 for all)")
	repoPRsCmd.Flags().StringVar(&repoPRState, "state", "open", "Pull request state (open, closed, all)")
	repoCloneCmd.Flags().StringVar(&cloneBranch, "branch", "", "Branch to check out after cloning")
	repoCloneCmd.Flags().BoolVar(&keepCloneDir, "keep", false, "Keep the clone directory instead of removing it")

	repoCmd.AddCommand(repoStatsCmd, repoListCmd, repoPRsCmd, repoCloneCmd)
	root.AddCommand(repoCmd, whoamiCmd)
}
