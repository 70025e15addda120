package github

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestClient creates a GitHub client with mocked HTTP responses.
func createTestClient(mockOptions ...mock.MockBackendOption) *Client {
	mockedHTTPClient := mock.NewMockedHTTPClient(mockOptions...)
	return &Client{
		Rest: github.NewClient(mockedHTTPClient),
	}
}

func TestUpdateFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mockOptions   []mock.MockBackendOption
		wantResult    *FileMutationResult
		wantNotFound  bool
		expectedError string
	}{
		{
			name: "updates existing file",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatch(
					mock.GetReposContentsByOwnerByRepoByPath,
					github.RepositoryContent{
						SHA:  github.Ptr("old-blob-sha"),
						Path: github.Ptr("docs/readme.md"),
					},
				),
				mock.WithRequestMatch(
					mock.PutReposContentsByOwnerByRepoByPath,
					github.RepositoryContentResponse{
						Content: &github.RepositoryContent{SHA: github.Ptr("new-blob-sha")},
						Commit:  github.Commit{SHA: github.Ptr("new-commit-sha")},
					},
				),
			},
			wantResult: &FileMutationResult{
				Operation:     OperationUpdated,
				CommitSHA:     "new-commit-sha",
				CommitMessage: "update readme",
				FileSHA:       "new-blob-sha",
				FilePath:      "docs/readme.md",
				Branch:        "main",
			},
		},
		{
			name: "missing file is reported without attempting a write",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchHandler(
					mock.GetReposContentsByOwnerByRepoByPath,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusNotFound, "Not Found")
					}),
				),
				// No PUT mock registered: a write attempt would fail the
				// test with an unmatched-request error instead of the
				// typed not-found below.
			},
			wantNotFound: true,
		},
		{
			name: "probe server error propagates instead of masquerading as absence",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchHandler(
					mock.GetReposContentsByOwnerByRepoByPath,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
					}),
				),
			},
			expectedError: "github get_contents operation failed",
		},
		{
			name: "update rejected upstream",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatch(
					mock.GetReposContentsByOwnerByRepoByPath,
					github.RepositoryContent{SHA: github.Ptr("old-blob-sha")},
				),
				mock.WithRequestMatchHandler(
					mock.PutReposContentsByOwnerByRepoByPath,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusConflict, "Conflict")
					}),
				),
			},
			expectedError: "github update_file operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(tt.mockOptions...)

			ctx := context.Background()
			result, err := client.UpdateFile(ctx, "testowner", "testrepo", "main", "docs/readme.md", "content", "update readme")

			if tt.wantNotFound {
				require.Error(t, err)
				var notFound *FileNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, "docs/readme.md", notFound.Path)
				assert.Equal(t, "main", notFound.Branch)
				return
			}
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, result)
		})
	}
}

func TestCreateOrUpdateFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mockOptions   []mock.MockBackendOption
		wantOperation string
		expectedError string
	}{
		{
			name: "existing file routes to update",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatch(
					mock.GetReposContentsByOwnerByRepoByPath,
					github.RepositoryContent{SHA: github.Ptr("old-blob-sha")},
				),
				mock.WithRequestMatch(
					mock.PutReposContentsByOwnerByRepoByPath,
					github.RepositoryContentResponse{
						Content: &github.RepositoryContent{SHA: github.Ptr("new-blob-sha")},
						Commit:  github.Commit{SHA: github.Ptr("update-commit-sha")},
					},
				),
			},
			wantOperation: OperationUpdated,
		},
		{
			name: "missing file routes to create",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchHandler(
					mock.GetReposContentsByOwnerByRepoByPath,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusNotFound, "Not Found")
					}),
				),
				mock.WithRequestMatch(
					mock.PutReposContentsByOwnerByRepoByPath,
					github.RepositoryContentResponse{
						Content: &github.RepositoryContent{SHA: github.Ptr("new-blob-sha")},
						Commit:  github.Commit{SHA: github.Ptr("create-commit-sha")},
					},
				),
			},
			wantOperation: OperationCreated,
		},
		{
			name: "probe failure short-circuits both arms",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchHandler(
					mock.GetReposContentsByOwnerByRepoByPath,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusForbidden, "Forbidden")
					}),
				),
			},
			expectedError: "github get_contents operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(tt.mockOptions...)

			ctx := context.Background()
			result, err := client.CreateOrUpdateFile(ctx, "testowner", "testrepo", "main", "docs/new.md", "content", "add doc")

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)

				var apiError *APIError
				require.ErrorAs(t, err, &apiError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOperation, result.Operation)
			// The commit message is echoed from the caller, never read
			// back from the server response.
			assert.Equal(t, "add doc", result.CommitMessage)
		})
	}
}

func TestAPIErrorIsAuthorization(t *testing.T) {
	t.Parallel()

	client := createTestClient(
		mock.WithRequestMatchHandler(
			mock.GetReposContentsByOwnerByRepoByPath,
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mock.WriteError(w, http.StatusUnauthorized, "Bad credentials")
			}),
		),
	)

	_, err := client.UpdateFile(context.Background(), "testowner", "testrepo", "main", "file.txt", "content", "msg")
	require.Error(t, err)

	var apiError *APIError
	require.True(t, errors.As(err, &apiError))
	assert.True(t, apiError.IsAuthorization())
	assert.Equal(t, http.StatusUnauthorized, apiError.StatusCode)
}
