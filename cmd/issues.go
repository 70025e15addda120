package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/relaymesh/app-scribe/github"
)

var (
	issuesMax    int
	issueLabels  []string
	closeComment string
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Inspect and transition repository issues",
}

var issuesListCmd = &cobra.Command{
	Use:   "list <owner> <repo>",
	Short: "List open issues in a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			issues, err := client.GetOpenIssues(cmd.Context(), args[0], args[1], issuesMax)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\n", issue.GetNumber(), issue.GetTitle())
			}
			return nil
		})
	},
}

var issuesCreateCmd = &cobra.Command{
	Use:   "create <owner> <repo> <title> <body>",
	Short: "Open a new issue",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			issue, err := client.CreateIssue(cmd.Context(), args[0], args[1], args[2], args[3], issueLabels)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issue.GetHTMLURL())
			return nil
		})
	},
}

var issuesCommentCmd = &cobra.Command{
	Use:   "comment <owner> <repo> <number> <body>",
	Short: "Comment on an issue",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid issue number %q: %w", args[2], err)
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			return client.AddIssueComment(cmd.Context(), args[0], args[1], number, args[3])
		})
	},
}

var issuesCloseCmd = &cobra.Command{
	Use:   "close <owner> <repo> <number>",
	Short: "Close an issue, optionally commenting first",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid issue number %q: %w", args[2], err)
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			return client.CloseIssue(cmd.Context(), args[0], args[1], number, closeComment)
		})
	},
}

var issuesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search issues across repositories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(client *github.Client) error {
			issues, err := client.SearchIssues(cmd.Context(), args[0], issuesMax)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", issue.GetHTMLURL(), issue.GetTitle())
			}
			return nil
		})
	},
}

func init() {
	issuesListCmd.Flags().IntVar(&issuesMax, "max", 0, "Maximum number of results (0 for all)")
	issuesSearchCmd.Flags().IntVar(&issuesMax, "max", 0, "Maximum number of results (0 for all)")
	issuesCreateCmd.Flags().StringSliceVar(&issueLabels, "label", nil, "Labels to apply to the new issue")
	issuesCloseCmd.Flags().StringVar(&closeComment, "comment", "", "Comment to post before closing")

	issuesCmd.AddCommand(issuesListCmd, issuesCreateCmd, issuesCommentCmd, issuesCloseCmd, issuesSearchCmd)
	root.AddCommand(issuesCmd)
}
