package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRepositoryStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mockOptions   []mock.MockBackendOption
		expected      *RepositoryStats
		expectedError string
	}{
		{
			name: "projects repository fields",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatch(
					mock.GetReposByOwnerByRepo,
					github.Repository{
						Name:            github.Ptr("testrepo"),
						FullName:        github.Ptr("testowner/testrepo"),
						Description:     github.Ptr("A test repository"),
						StargazersCount: github.Ptr(42),
						ForksCount:      github.Ptr(7),
						OpenIssuesCount: github.Ptr(3),
						WatchersCount:   github.Ptr(42),
						Language:        github.Ptr("Go"),
						DefaultBranch:   github.Ptr("main"),
						Archived:        github.Ptr(false),
						Private:         github.Ptr(true),
					},
				),
			},
			expected: &RepositoryStats{
				Name:          "testrepo",
				FullName:      "testowner/testrepo",
				Description:   "A test repository",
				Stars:         42,
				Forks:         7,
				OpenIssues:    3,
				Watchers:      42,
				Language:      "Go",
				DefaultBranch: "main",
				Archived:      false,
				Private:       true,
			},
		},
		{
			name: "repository not found",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchHandler(
					mock.GetReposByOwnerByRepo,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusNotFound, "Not Found")
					}),
				),
			},
			expectedError: "github get_repository operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(tt.mockOptions...)

			stats, err := client.GetRepositoryStats(context.Background(), "testowner", "testrepo")

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, stats)
		})
	}
}

func TestListOrgRepos(t *testing.T) {
	t.Parallel()

	threeRepos := []github.Repository{
		{Name: github.Ptr("repo-a")},
		{Name: github.Ptr("repo-b")},
		{Name: github.Ptr("repo-c")},
	}

	tests := []struct {
		name        string
		max         int
		mockOptions []mock.MockBackendOption
		wantNames   []string
	}{
		{
			name: "drains all pages",
			max:  0,
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchPages(
					mock.GetOrgsReposByOrg,
					threeRepos[:2],
					threeRepos[2:],
				),
			},
			wantNames: []string{"repo-a", "repo-b", "repo-c"},
		},
		{
			name: "positive max truncates",
			max:  2,
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchPages(
					mock.GetOrgsReposByOrg,
					threeRepos,
				),
			},
			wantNames: []string{"repo-a", "repo-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(tt.mockOptions...)

			repos, err := client.ListOrgRepos(context.Background(), "testorg", tt.max)
			require.NoError(t, err)

			names := make([]string, 0, len(repos))
			for _, repo := range repos {
				names = append(names, repo.GetName())
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestGetUserInfo(t *testing.T) {
	t.Parallel()

	client := createTestClient(
		mock.WithRequestMatch(
			mock.GetUser,
			github.User{
				Login:    github.Ptr("test-app[bot]"),
				Name:     github.Ptr("Test App"),
				Type:     github.Ptr("Bot"),
				Company:  github.Ptr("Testers Inc"),
				Location: github.Ptr("Earth"),
			},
		),
	)

	info, err := client.GetUserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &UserInfo{
		Login:    "test-app[bot]",
		Name:     "Test App",
		Type:     "Bot",
		Company:  "Testers Inc",
		Location: "Earth",
	}, info)
}
