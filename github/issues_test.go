package github

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOpenIssues(t *testing.T) {
	t.Parallel()

	issues := []github.Issue{
		{Number: github.Ptr(1)},
		{Number: github.Ptr(2)},
		{Number: github.Ptr(3)},
	}

	tests := []struct {
		name        string
		max         int
		mockOptions []mock.MockBackendOption
		wantNumbers []int
	}{
		{
			name: "drains all pages",
			max:  0,
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchPages(
					mock.GetReposIssuesByOwnerByRepo,
					issues[:2],
					issues[2:],
				),
			},
			wantNumbers: []int{1, 2, 3},
		},
		{
			name: "positive max truncates",
			max:  1,
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchPages(
					mock.GetReposIssuesByOwnerByRepo,
					issues,
				),
			},
			wantNumbers: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(tt.mockOptions...)

			got, err := client.GetOpenIssues(context.Background(), "testowner", "testrepo", tt.max)
			require.NoError(t, err)

			numbers := make([]int, 0, len(got))
			for _, issue := range got {
				numbers = append(numbers, issue.GetNumber())
			}
			assert.Equal(t, tt.wantNumbers, numbers)
		})
	}
}

func TestCreateIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		labels     []string
		wantLabels []string
	}{
		{
			name:   "without labels",
			labels: nil,
		},
		{
			name:       "with labels",
			labels:     []string{"bug", "help wanted"},
			wantLabels: []string{"bug", "help wanted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotRequest github.IssueRequest
			client := createTestClient(
				mock.WithRequestMatchHandler(
					mock.PostReposIssuesByOwnerByRepo,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
						w.WriteHeader(http.StatusCreated)
						_, _ = w.Write(mock.MustMarshal(github.Issue{
							Number: github.Ptr(77),
							Title:  github.Ptr("broken build"),
						}))
					}),
				),
			)

			issue, err := client.CreateIssue(context.Background(), "testowner", "testrepo", "broken build", "details", tt.labels)
			require.NoError(t, err)
			assert.Equal(t, 77, issue.GetNumber())
			assert.Equal(t, "broken build", gotRequest.GetTitle())
			if tt.wantLabels == nil {
				assert.Nil(t, gotRequest.Labels)
			} else {
				require.NotNil(t, gotRequest.Labels)
				assert.Equal(t, tt.wantLabels, *gotRequest.Labels)
			}
		})
	}
}

func TestGetPullRequests(t *testing.T) {
	t.Parallel()

	client := createTestClient(
		mock.WithRequestMatchHandler(
			mock.GetReposPullsByOwnerByRepo,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "closed", r.URL.Query().Get("state"))
				_, _ = w.Write(mock.MustMarshal([]github.PullRequest{
					{Number: github.Ptr(5)},
					{Number: github.Ptr(6)},
				}))
			}),
		),
	)

	prs, err := client.GetPullRequests(context.Background(), "testowner", "testrepo", "closed", 0)
	require.NoError(t, err)
	require.Len(t, prs, 2)
	assert.Equal(t, 5, prs[0].GetNumber())
}

func TestSearchIssues(t *testing.T) {
	t.Parallel()

	client := createTestClient(
		mock.WithRequestMatch(
			mock.GetSearchIssues,
			github.IssuesSearchResult{
				Total: github.Ptr(3),
				Issues: []*github.Issue{
					{Number: github.Ptr(10)},
					{Number: github.Ptr(11)},
					{Number: github.Ptr(12)},
				},
			},
		),
	)

	issues, err := client.SearchIssues(context.Background(), "repo:testowner/testrepo is:open label:bug", 2)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 10, issues[0].GetNumber())
}

func TestCloseIssue(t *testing.T) {
	t.Parallel()

	t.Run("comment lands strictly before the state change", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			order []string
		)
		client := createTestClient(
			mock.WithRequestMatchHandler(
				mock.PostReposIssuesCommentsByOwnerByRepoByIssueNumber,
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					mu.Lock()
					order = append(order, "comment")
					mu.Unlock()
					w.WriteHeader(http.StatusCreated)
					_, _ = w.Write(mock.MustMarshal(github.IssueComment{ID: github.Ptr(int64(1))}))
				}),
			),
			mock.WithRequestMatchHandler(
				mock.PatchReposIssuesByOwnerByRepoByIssueNumber,
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					mu.Lock()
					order = append(order, "close")
					mu.Unlock()
					_, _ = w.Write(mock.MustMarshal(github.Issue{
						Number: github.Ptr(9),
						State:  github.Ptr("closed"),
					}))
				}),
			),
		)

		err := client.CloseIssue(context.Background(), "testowner", "testrepo", 9, "fixed in abc123")
		require.NoError(t, err)
		assert.Equal(t, []string{"comment", "close"}, order)
	})

	t.Run("failed comment blocks the close", func(t *testing.T) {
		t.Parallel()

		closeAttempted := false
		client := createTestClient(
			mock.WithRequestMatchHandler(
				mock.PostReposIssuesCommentsByOwnerByRepoByIssueNumber,
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					mock.WriteError(w, http.StatusForbidden, "Forbidden")
				}),
			),
			mock.WithRequestMatchHandler(
				mock.PatchReposIssuesByOwnerByRepoByIssueNumber,
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					closeAttempted = true
					_, _ = w.Write(mock.MustMarshal(github.Issue{}))
				}),
			),
		)

		err := client.CloseIssue(context.Background(), "testowner", "testrepo", 9, "fixed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to comment before closing issue 9")
		assert.False(t, closeAttempted)
	})

	t.Run("empty comment skips straight to the state change", func(t *testing.T) {
		t.Parallel()

		client := createTestClient(
			mock.WithRequestMatch(
				mock.PatchReposIssuesByOwnerByRepoByIssueNumber,
				github.Issue{State: github.Ptr("closed")},
			),
		)

		err := client.CloseIssue(context.Background(), "testowner", "testrepo", 9, "")
		require.NoError(t, err)
	})
}

func TestAddIssueComment(t *testing.T) {
	t.Parallel()

	client := createTestClient(
		mock.WithRequestMatchHandler(
			mock.PostReposIssuesCommentsByOwnerByRepoByIssueNumber,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var comment github.IssueComment
				require.NoError(t, json.NewDecoder(r.Body).Decode(&comment))
				assert.Equal(t, "looks good", comment.GetBody())
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write(mock.MustMarshal(comment))
			}),
		),
	)

	err := client.AddIssueComment(context.Background(), "testowner", "testrepo", 3, "looks good")
	require.NoError(t, err)
}
