package github

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// CloneRepo clones a repository to a temp directory using the installation
// token for transport auth and returns the repository and its path. The
// caller owns the directory and should remove it when done.
func (c *Client) CloneRepo(ctx context.Context, owner, repo string) (*git.Repository, string, error) {
	repoPath, err := os.MkdirTemp("", fmt.Sprintf("%s-%s-*", owner, repo))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	progress := bytes.NewBuffer(nil)

	repoURL, err := url.JoinPath(c.Rest.BaseURL.String(), owner, repo)
	if err != nil {
		return nil, "", fmt.Errorf("failed to construct repository URL: %w", err)
	}
	repoURL = strings.Replace(repoURL, "api.github.com", "github.com", 1)
	repoURL += ".git"

	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read installation token: %w", err)
	}

	cloned, err := git.PlainCloneContext(ctx, repoPath, false, &git.CloneOptions{
		URL:      repoURL,
		Progress: progress,
		Auth: &http.BasicAuth{
			// Installation tokens authenticate over HTTPS with this
			// fixed username.
			Username: "x-access-token",
			Password: token.AccessToken,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to clone repository at %s: %w, %s", repoURL, err, progress.String())
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Str("path", repoPath).
		Msg("Cloned repository")

	return cloned, repoPath, nil
}

// CheckoutBranch checks out a branch in a local repository, creating a
// local branch from the remote one when it does not exist yet.
func (c *Client) CheckoutBranch(repo *git.Repository, branchName string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branchName)
	if _, err := repo.Reference(branchRef, true); err != nil {
		remoteBranchRef := plumbing.NewRemoteReferenceName("origin", branchName)
		remoteRef, err := repo.Reference(remoteBranchRef, true)
		if err != nil {
			return fmt.Errorf("failed to get remote branch reference %s: %w", remoteBranchRef, err)
		}

		err = worktree.Checkout(&git.CheckoutOptions{
			Branch: branchRef,
			Create: true,
			Hash:   remoteRef.Hash(),
		})
		if err != nil {
			return fmt.Errorf("failed to create and checkout branch %s: %w", branchName, err)
		}
		return nil
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef}); err != nil {
		return fmt.Errorf("failed to checkout existing branch %s: %w", branchName, err)
	}
	return nil
}
