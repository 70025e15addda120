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

func TestBranchHeadSHA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mockOptions   []mock.MockBackendOption
		expectedSHA   string
		expectedError string
	}{
		{
			name: "existing branch",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatch(
					mock.GetReposGitRefByOwnerByRepoByRef,
					github.Reference{
						Object: &github.GitObject{SHA: github.Ptr("abc123def")},
					},
				),
			},
			expectedSHA: "abc123def",
		},
		{
			name: "reference without a SHA",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatch(
					mock.GetReposGitRefByOwnerByRepoByRef,
					github.Reference{Object: &github.GitObject{}},
				),
			},
			expectedError: "branch main has no SHA",
		},
		{
			name: "missing branch",
			mockOptions: []mock.MockBackendOption{
				mock.WithRequestMatchHandler(
					mock.GetReposGitRefByOwnerByRepoByRef,
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						mock.WriteError(w, http.StatusNotFound, "Not Found")
					}),
				),
			},
			expectedError: "github get_ref operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := createTestClient(tt.mockOptions...)

			sha, err := client.branchHeadSHA(context.Background(), "testowner", "testrepo", "main")

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedSHA, sha)
		})
	}
}

func TestParseCommitMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		input            string
		expectedHeadline string
		expectedBody     string
	}{
		{
			name:             "single line message",
			input:            "Fix bug in handler",
			expectedHeadline: "Fix bug in handler",
			expectedBody:     "",
		},
		{
			name:             "multi-line message",
			input:            "Fix bug in handler\n\nThis fixes the issue with null pointer",
			expectedHeadline: "Fix bug in handler",
			expectedBody:     "\nThis fixes the issue with null pointer",
		},
		{
			name:             "empty message",
			input:            "",
			expectedHeadline: "",
			expectedBody:     "",
		},
		{
			name:             "message with only newline",
			input:            "Single line\n",
			expectedHeadline: "Single line",
			expectedBody:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			headline, body := parseCommitMessage(tt.input)
			assert.Equal(t, tt.expectedHeadline, headline)
			assert.Equal(t, tt.expectedBody, body)
		})
	}
}

func TestBase64EncodeFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple text",
			input:    "hello world",
			expected: "aGVsbG8gd29ybGQ=",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "go source code",
			input:    "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}",
			expected: "cGFja2FnZSBtYWluCgpmdW5jIG1haW4oKSB7CglwcmludGxuKCJoZWxsbyIpCn0=",
		},
		{
			name:     "unicode characters",
			input:    "Hello 世界",
			expected: "SGVsbG8g5LiW55WM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := base64EncodeFile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
