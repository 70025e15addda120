package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v73/github"
)

// Operation values reported in a FileMutationResult.
const (
	OperationCreated = "created"
	OperationUpdated = "updated"
)

// FileMutationResult describes one file write performed through the
// contents API.
type FileMutationResult struct {
	// Operation is "created" or "updated".
	Operation string `json:"operation"`
	// CommitSHA is the commit produced by the write.
	CommitSHA string `json:"commit_sha"`
	// CommitMessage is the caller-supplied message, echoed verbatim rather
	// than read back from the server, which may normalize it.
	CommitMessage string `json:"commit_message"`
	// FileSHA is the content hash of the file after the write.
	FileSHA  string `json:"file_sha"`
	FilePath string `json:"file_path"`
	Branch   string `json:"branch"`
}

// fileProbe is the tagged outcome of an existence check: either the file
// exists (with its SHA) or it genuinely does not. Transport and server
// errors are reported separately and never collapse into "does not exist".
type fileProbe struct {
	exists bool
	sha    string
}

// UpdateFile updates an existing file on a branch through the contents API.
// It requires the file to already exist: the current blob SHA is fetched
// first and submitted as the optimistic-concurrency precondition. A missing
// file yields a *FileNotFoundError without ever reaching the write endpoint.
func (c *Client) UpdateFile(
	ctx context.Context,
	owner, repo, branch, path, content, message string,
) (*FileMutationResult, error) {
	start := time.Now()
	c.metrics.IncGitHubRequest(ctx, "update_file")

	probe, err := c.probeFile(ctx, owner, repo, branch, path)
	if err != nil {
		return nil, err
	}
	if !probe.exists {
		err := &FileNotFoundError{Owner: owner, Repo: repo, Path: path, Branch: branch}
		c.logger.Debug().Err(err).Msg("Update-only write against missing file")
		return nil, err
	}

	result, err := c.writeFile(ctx, owner, repo, branch, path, content, message, probe.sha)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordMutationDuration(ctx, "contents", time.Since(start))
	return result, nil
}

// CreateOrUpdateFile writes a file on a branch, creating it if absent and
// updating it otherwise. Only a genuine 404 from the probe routes to
// create; any other probe failure propagates.
func (c *Client) CreateOrUpdateFile(
	ctx context.Context,
	owner, repo, branch, path, content, message string,
) (*FileMutationResult, error) {
	start := time.Now()
	c.metrics.IncGitHubRequest(ctx, "create_or_update_file")

	probe, err := c.probeFile(ctx, owner, repo, branch, path)
	if err != nil {
		return nil, err
	}

	var result *FileMutationResult
	if probe.exists {
		result, err = c.writeFile(ctx, owner, repo, branch, path, content, message, probe.sha)
	} else {
		result, err = c.createFile(ctx, owner, repo, branch, path, content, message)
	}
	if err != nil {
		return nil, err
	}
	c.metrics.RecordMutationDuration(ctx, "contents", time.Since(start))
	return result, nil
}

// probeFile fetches file metadata on a branch and reports existence as a
// tagged outcome rather than an error.
func (c *Client) probeFile(ctx context.Context, owner, repo, branch, path string) (fileProbe, error) {
	file, _, resp, err := c.Rest.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		if isNotFound(resp, err) {
			return fileProbe{}, nil
		}
		return fileProbe{}, apiErr("get_contents", owner, repo, branch, resp, err)
	}
	if file == nil {
		// GetContents returns a directory listing instead of file content
		// when the path names a directory.
		return fileProbe{}, apiErr("get_contents", owner, repo, branch, resp,
			fmt.Errorf("path %q is a directory, not a file", path))
	}
	return fileProbe{exists: true, sha: file.GetSHA()}, nil
}

func (c *Client) writeFile(
	ctx context.Context,
	owner, repo, branch, path, content, message, sha string,
) (*FileMutationResult, error) {
	written, resp, err := c.Rest.Repositories.UpdateFile(ctx, owner, repo, path, &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: []byte(content),
		SHA:     github.Ptr(sha),
		Branch:  github.Ptr(branch),
	})
	if err != nil {
		return nil, apiErr("update_file", owner, repo, branch, resp, err)
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Str("path", path).
		Str("branch", branch).
		Str("commit_sha", written.GetSHA()).
		Msg("Updated file")

	return &FileMutationResult{
		Operation:     OperationUpdated,
		CommitSHA:     written.GetSHA(),
		CommitMessage: message,
		FileSHA:       written.GetContent().GetSHA(),
		FilePath:      path,
		Branch:        branch,
	}, nil
}

func (c *Client) createFile(
	ctx context.Context,
	owner, repo, branch, path, content, message string,
) (*FileMutationResult, error) {
	written, resp, err := c.Rest.Repositories.CreateFile(ctx, owner, repo, path, &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: []byte(content),
		Branch:  github.Ptr(branch),
	})
	if err != nil {
		return nil, apiErr("create_file", owner, repo, branch, resp, err)
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Str("path", path).
		Str("branch", branch).
		Str("commit_sha", written.GetSHA()).
		Msg("Created file")

	return &FileMutationResult{
		Operation:     OperationCreated,
		CommitSHA:     written.GetSHA(),
		CommitMessage: message,
		FileSHA:       written.GetContent().GetSHA(),
		FilePath:      path,
		Branch:        branch,
	}, nil
}
