package github

import (
	"context"
	"time"

	"github.com/google/go-github/v73/github"
)

// GitDataResult describes one file write performed through the Git data
// API, exposing the intermediate objects the plumbing chain produced.
type GitDataResult struct {
	CommitSHA string `json:"commit_sha"`
	// CommitMessage is read back from the created commit object.
	CommitMessage string `json:"commit_message"`
	TreeSHA       string `json:"tree_sha"`
	BlobSHA       string `json:"blob_sha"`
	Branch        string `json:"branch"`
	FilePath      string `json:"file_path"`
}

// UpdateFileViaGitData writes a file on a branch through the low-level Git
// data API: blob, tree, commit, then a non-forced ref update. The final
// ref update fails with a *RefConflictError when the branch head moved
// between the initial read and the update; callers decide whether to
// retry, the chain never re-runs on its own.
func (c *Client) UpdateFileViaGitData(
	ctx context.Context,
	owner, repo, branch, path, content, message string,
) (*GitDataResult, error) {
	start := time.Now()
	c.metrics.IncGitHubRequest(ctx, "update_file_git_data")

	refName := "refs/heads/" + branch
	ref, resp, err := c.Rest.Git.GetRef(ctx, owner, repo, refName)
	if err != nil {
		return nil, apiErr("get_ref", owner, repo, branch, resp, err)
	}
	baseSHA := ref.GetObject().GetSHA()

	baseCommit, resp, err := c.Rest.Git.GetCommit(ctx, owner, repo, baseSHA)
	if err != nil {
		return nil, apiErr("get_commit", owner, repo, branch, resp, err)
	}

	blob, resp, err := c.Rest.Git.CreateBlob(ctx, owner, repo, &github.Blob{
		Content:  github.Ptr(content),
		Encoding: github.Ptr("utf-8"),
	})
	if err != nil {
		return nil, apiErr("create_blob", owner, repo, branch, resp, err)
	}

	tree, resp, err := c.Rest.Git.CreateTree(ctx, owner, repo, baseCommit.GetTree().GetSHA(), []*github.TreeEntry{
		{
			Path: github.Ptr(path),
			Mode: github.Ptr("100644"),
			Type: github.Ptr("blob"),
			SHA:  blob.SHA,
		},
	})
	if err != nil {
		return nil, apiErr("create_tree", owner, repo, branch, resp, err)
	}

	commit, resp, err := c.Rest.Git.CreateCommit(ctx, owner, repo, &github.Commit{
		Message: github.Ptr(message),
		Tree:    tree,
		Parents: []*github.Commit{{SHA: github.Ptr(baseSHA)}},
	}, nil)
	if err != nil {
		return nil, apiErr("create_commit", owner, repo, branch, resp, err)
	}

	// Force stays off so a concurrent writer surfaces as a conflict
	// instead of silently discarding their commit.
	updated, resp, err := c.Rest.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.Ptr(refName),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		if isRefConflict(resp, err) {
			return nil, &RefConflictError{
				Owner:       owner,
				Repo:        repo,
				Branch:      branch,
				ExpectedSHA: baseSHA,
			}
		}
		return nil, apiErr("update_ref", owner, repo, branch, resp, err)
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Str("path", path).
		Str("branch", branch).
		Str("commit_sha", commit.GetSHA()).
		Str("ref_sha", updated.GetObject().GetSHA()).
		Msg("Updated file via git data API")

	c.metrics.RecordMutationDuration(ctx, "git_data", time.Since(start))

	return &GitDataResult{
		CommitSHA:     commit.GetSHA(),
		CommitMessage: commit.GetMessage(),
		TreeSHA:       tree.GetSHA(),
		BlobSHA:       blob.GetSHA(),
		Branch:        branch,
		FilePath:      path,
	}, nil
}
