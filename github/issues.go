package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v73/github"
)

// GetOpenIssues lists open issues in a repository, draining pagination.
// A positive max caps the result; zero returns everything.
func (c *Client) GetOpenIssues(ctx context.Context, owner, repo string, max int) ([]*github.Issue, error) {
	c.metrics.IncGitHubRequest(ctx, "get_open_issues")

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []*github.Issue
	for {
		page, resp, err := c.Rest.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, apiErr("get_open_issues", owner, repo, "", resp, err)
		}
		issues = append(issues, page...)
		if max > 0 && len(issues) >= max {
			return issues[:max], nil
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return issues, nil
}

// CreateIssue opens a new issue, optionally with labels.
func (c *Client) CreateIssue(
	ctx context.Context,
	owner, repo, title, body string,
	labels []string,
) (*github.Issue, error) {
	c.metrics.IncGitHubRequest(ctx, "create_issue")

	req := &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, resp, err := c.Rest.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, apiErr("create_issue", owner, repo, "", resp, err)
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Int("issue", issue.GetNumber()).
		Msg("Created issue")

	return issue, nil
}

// GetPullRequests lists pull requests in a repository filtered by state
// ("open", "closed" or "all"). A positive max caps the result.
func (c *Client) GetPullRequests(
	ctx context.Context,
	owner, repo, state string,
	max int,
) ([]*github.PullRequest, error) {
	c.metrics.IncGitHubRequest(ctx, "get_pull_requests")

	opts := &github.PullRequestListOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var prs []*github.PullRequest
	for {
		page, resp, err := c.Rest.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, apiErr("get_pull_requests", owner, repo, "", resp, err)
		}
		prs = append(prs, page...)
		if max > 0 && len(prs) >= max {
			return prs[:max], nil
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

// SearchIssues runs an issue search query. A positive max caps the result.
func (c *Client) SearchIssues(ctx context.Context, query string, max int) ([]*github.Issue, error) {
	c.metrics.IncGitHubRequest(ctx, "search_issues")

	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []*github.Issue
	for {
		page, resp, err := c.Rest.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, apiErr("search_issues", "", "", "", resp, err)
		}
		issues = append(issues, page.Issues...)
		if max > 0 && len(issues) >= max {
			return issues[:max], nil
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

// AddIssueComment posts a comment on an issue.
func (c *Client) AddIssueComment(ctx context.Context, owner, repo string, number int, comment string) error {
	c.metrics.IncGitHubRequest(ctx, "add_issue_comment")

	_, resp, err := c.Rest.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(comment),
	})
	if err != nil {
		return apiErr("add_issue_comment", owner, repo, "", resp, err)
	}
	return nil
}

// CloseIssue closes an issue. A non-empty comment is posted first and must
// succeed before the state change is attempted, so a closed issue always
// carries its closing comment.
func (c *Client) CloseIssue(ctx context.Context, owner, repo string, number int, comment string) error {
	c.metrics.IncGitHubRequest(ctx, "close_issue")

	if comment != "" {
		if err := c.AddIssueComment(ctx, owner, repo, number, comment); err != nil {
			return fmt.Errorf("failed to comment before closing issue %d: %w", number, err)
		}
	}

	_, resp, err := c.Rest.Issues.Edit(ctx, owner, repo, number, &github.IssueRequest{
		State: github.Ptr("closed"),
	})
	if err != nil {
		return apiErr("close_issue", owner, repo, "", resp, err)
	}

	c.logger.Debug().
		Str("repo", owner+"/"+repo).
		Int("issue", number).
		Msg("Closed issue")

	return nil
}
