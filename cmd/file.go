package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relaymesh/app-scribe/github"
)

var (
	fileOwner   string
	fileRepo    string
	fileBranch  string
	filePath    string
	fileMessage string
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Write files to a repository branch",
	Long: `
Write files to a repository branch as the GitHub App.

Content is read from the named local file, or from stdin when the argument
is "-". The update subcommand refuses to touch files that do not exist yet;
put creates them as needed; commit goes through the low-level Git data API
and fails cleanly when the branch head moves mid-flight.
`,
}

var fileUpdateCmd = &cobra.Command{
	Use:   "update <content-file>",
	Short: "Update an existing file through the contents API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(args[0])
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			result, err := client.UpdateFile(cmd.Context(), fileOwner, fileRepo, fileBranch, filePath, content, fileMessage)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		})
	},
}

var filePutCmd = &cobra.Command{
	Use:   "put <content-file>",
	Short: "Create or update a file through the contents API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(args[0])
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			result, err := client.CreateOrUpdateFile(cmd.Context(), fileOwner, fileRepo, fileBranch, filePath, content, fileMessage)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		})
	},
}

var fileCommitCmd = &cobra.Command{
	Use:   "commit <content-file>",
	Short: "Update a file through the Git data API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(args[0])
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			result, err := client.UpdateFileViaGitData(cmd.Context(), fileOwner, fileRepo, fileBranch, filePath, content, fileMessage)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		})
	},
}

// fileBatchCmd commits several files in one commit. Arguments pair a
// repository path with a local content file as repo/path=local-file.
var fileBatchCmd = &cobra.Command{
	Use:   "batch <repo-path>=<content-file> [<repo-path>=<content-file>...]",
	Short: "Commit several files in a single commit via GraphQL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make(map[string]string, len(args))
		for _, arg := range args {
			repoPath, localFile, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("invalid argument %q, expected <repo-path>=<content-file>", arg)
			}
			content, err := readContent(localFile)
			if err != nil {
				return err
			}
			files[repoPath] = content
		}
		return withClient(cmd.Context(), func(client *github.Client) error {
			result, err := client.CommitFiles(cmd.Context(), fileOwner, fileRepo, fileBranch, fileMessage, files)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		})
	},
}

func readContent(name string) (string, error) {
	if name == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(content), nil
	}
	content, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(content), nil
}

func init() {
	flags := fileCmd.PersistentFlags()
	flags.StringVar(&fileOwner, "owner", "", "Repository owner")
	flags.StringVar(&fileRepo, "repo", "", "Repository name")
	flags.StringVar(&fileBranch, "branch", "main", "Branch to write to")
	flags.StringVar(&filePath, "path", "", "Repository path of the file")
	flags.StringVar(&fileMessage, "message", "", "Commit message")

	for _, name := range []string{"owner", "repo", "message"} {
		if err := fileCmd.MarkPersistentFlagRequired(name); err != nil {
			panic(err)
		}
	}

	fileCmd.AddCommand(fileUpdateCmd, filePutCmd, fileCommitCmd, fileBatchCmd)
	root.AddCommand(fileCmd)
}
