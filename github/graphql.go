package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	gh_graphql "github.com/shurcooL/githubv4"
)

// CommitResult describes a commit produced by the GraphQL mutation path.
type CommitResult struct {
	CommitSHA string `json:"commit_sha"`
	CommitURL string `json:"commit_url"`
	Branch    string `json:"branch"`
}

// CommitFiles commits a set of files to a branch in a single commit through
// the createCommitOnBranch GraphQL mutation. The keys of files are
// repository paths and the values are the full new contents. The mutation
// carries the branch head read here as its expected head OID, so a
// concurrent writer surfaces as a *RefConflictError.
func (c *Client) CommitFiles(
	ctx context.Context,
	owner, repo, branch, message string,
	files map[string]string,
) (*CommitResult, error) {
	start := time.Now()
	c.metrics.IncGitHubRequest(ctx, "commit_files")

	headSHA, err := c.branchHeadSHA(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}

	additions := make([]gh_graphql.FileAddition, 0, len(files))
	for file, contents := range files {
		enc, err := base64EncodeFile(contents)
		if err != nil {
			return nil, fmt.Errorf("failed to encode file %s: %w", file, err)
		}
		additions = append(additions, gh_graphql.FileAddition{
			Path:     gh_graphql.String(file),
			Contents: gh_graphql.Base64String(enc),
		})
	}

	var m struct {
		CreateCommitOnBranch struct {
			Commit struct {
				Oid string
				URL string
			}
		} `graphql:"createCommitOnBranch(input:$input)"`
	}

	headline, body := parseCommitMessage(message)

	input := gh_graphql.CreateCommitOnBranchInput{
		Branch: gh_graphql.CommittableBranch{
			RepositoryNameWithOwner: gh_graphql.NewString(gh_graphql.String(fmt.Sprintf("%s/%s", owner, repo))),
			BranchName:              gh_graphql.NewString(gh_graphql.String(branch)),
		},
		Message: gh_graphql.CommitMessage{
			Headline: gh_graphql.String(headline),
			Body:     gh_graphql.NewString(gh_graphql.String(body)),
		},
		FileChanges: &gh_graphql.FileChanges{
			Additions: &additions,
		},
		ExpectedHeadOid: gh_graphql.GitObjectID(headSHA),
	}

	if err := c.GraphQL.Mutate(ctx, &m, input, nil); err != nil {
		if strings.Contains(err.Error(), "Expected branch to point to") {
			return nil, &RefConflictError{
				Owner:       owner,
				Repo:        repo,
				Branch:      branch,
				ExpectedSHA: headSHA,
			}
		}
		return nil, fmt.Errorf("failed to create commit on %s/%s@%s: %w", owner, repo, branch, err)
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Str("branch", branch).
		Str("commit_sha", m.CreateCommitOnBranch.Commit.Oid).
		Int("files", len(files)).
		Msg("Committed files via GraphQL")

	c.metrics.RecordMutationDuration(ctx, "graphql", time.Since(start))

	return &CommitResult{
		CommitSHA: m.CreateCommitOnBranch.Commit.Oid,
		CommitURL: m.CreateCommitOnBranch.Commit.URL,
		Branch:    branch,
	}, nil
}

// branchHeadSHA returns the HEAD SHA of an existing branch.
func (c *Client) branchHeadSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	ref, resp, err := c.Rest.Git.GetRef(ctx, owner, repo, "refs/heads/"+branch)
	if err != nil {
		return "", apiErr("get_ref", owner, repo, branch, resp, err)
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", apiErr("get_ref", owner, repo, branch, resp, fmt.Errorf("branch %s has no SHA", branch))
	}
	return sha, nil
}

// base64EncodeFile encodes a file's contents to base64.
func base64EncodeFile(contents string) (string, error) {
	buf := bytes.Buffer{}
	encoder := base64.NewEncoder(base64.StdEncoding, &buf)

	if _, err := io.Copy(encoder, strings.NewReader(contents)); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseCommitMessage splits a commit message into a headline and body.
func parseCommitMessage(msg string) (string, string) {
	parts := strings.SplitN(msg, "\n", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
