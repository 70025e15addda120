package github

import (
	"context"
	"time"

	"github.com/google/go-github/v73/github"
)

// RepositoryStats is a flat projection of the repository fields callers
// typically report on.
type RepositoryStats struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	OpenIssues    int       `json:"open_issues"`
	Watchers      int       `json:"watchers"`
	Language      string    `json:"language"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DefaultBranch string    `json:"default_branch"`
	Archived      bool      `json:"archived"`
	Private       bool      `json:"private"`
}

// UserInfo is a flat projection of the authenticated identity.
type UserInfo struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Company  string `json:"company"`
	Blog     string `json:"blog"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
}

// GetRepository fetches a repository by owner and name.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	c.metrics.IncGitHubRequest(ctx, "get_repository")

	ghRepo, resp, err := c.Rest.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, apiErr("get_repository", owner, repo, "", resp, err)
	}
	return ghRepo, nil
}

// GetRepositoryStats fetches a repository and projects its headline numbers.
func (c *Client) GetRepositoryStats(ctx context.Context, owner, repo string) (*RepositoryStats, error) {
	ghRepo, err := c.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	return &RepositoryStats{
		Name:          ghRepo.GetName(),
		FullName:      ghRepo.GetFullName(),
		Description:   ghRepo.GetDescription(),
		Stars:         ghRepo.GetStargazersCount(),
		Forks:         ghRepo.GetForksCount(),
		OpenIssues:    ghRepo.GetOpenIssuesCount(),
		Watchers:      ghRepo.GetWatchersCount(),
		Language:      ghRepo.GetLanguage(),
		CreatedAt:     ghRepo.GetCreatedAt().Time,
		UpdatedAt:     ghRepo.GetUpdatedAt().Time,
		DefaultBranch: ghRepo.GetDefaultBranch(),
		Archived:      ghRepo.GetArchived(),
		Private:       ghRepo.GetPrivate(),
	}, nil
}

// ListOrgRepos lists repositories in an organization, draining pagination.
// A positive max caps the result; zero returns everything.
func (c *Client) ListOrgRepos(ctx context.Context, org string, max int) ([]*github.Repository, error) {
	c.metrics.IncGitHubRequest(ctx, "list_org_repos")

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []*github.Repository
	for {
		page, resp, err := c.Rest.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, apiErr("list_org_repos", org, "", "", resp, err)
		}
		repos = append(repos, page...)
		if max > 0 && len(repos) >= max {
			return repos[:max], nil
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

// GetUserInfo fetches the identity the current token authenticates as.
func (c *Client) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	c.metrics.IncGitHubRequest(ctx, "get_user_info")

	user, resp, err := c.Rest.Users.Get(ctx, "")
	if err != nil {
		return nil, apiErr("get_user_info", "", "", "", resp, err)
	}

	return &UserInfo{
		Login:    user.GetLogin(),
		Name:     user.GetName(),
		Type:     user.GetType(),
		Company:  user.GetCompany(),
		Blog:     user.GetBlog(),
		Location: user.GetLocation(),
		Email:    user.GetEmail(),
		Bio:      user.GetBio(),
	}, nil
}
