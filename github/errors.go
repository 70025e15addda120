package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v73/github"
)

// APIError provides enhanced error information for GitHub API operations,
// allowing callers to handle errors with appropriate business context and logging.
type APIError struct {
	Operation  string // The operation being performed (e.g., "get_repository", "update_ref")
	Owner      string // The repository owner
	Repo       string // The repository name
	Branch     string // The branch name if applicable
	StatusCode int    // HTTP status code if available
	Underlying error  // The underlying error that occurred
}

func (e *APIError) Error() string {
	context := ""
	if e.Owner != "" && e.Repo != "" {
		context = fmt.Sprintf(" for %s/%s", e.Owner, e.Repo)
		if e.Branch != "" {
			context += fmt.Sprintf(" (branch: %s)", e.Branch)
		}
	}

	if e.StatusCode != 0 {
		return fmt.Sprintf("github %s operation failed%s (status %d): %v", e.Operation, context, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("github %s operation failed%s: %v", e.Operation, context, e.Underlying)
}

func (e *APIError) Unwrap() error { return e.Underlying }

// IsAuthorization reports whether the failure looks like an expired or
// invalid installation token, in which case the caller should invalidate
// its cached client and re-issue.
func (e *APIError) IsAuthorization() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// InstallationNotFoundError is returned when the App has no installation on
// the configured organization. It signals misconfiguration, not a transient
// fault, and is never retried.
type InstallationNotFoundError struct {
	Org string
}

func (e *InstallationNotFoundError) Error() string {
	return fmt.Sprintf("no installation found for organization %q", e.Org)
}

// FileNotFoundError is returned by the update-only write path when the file
// does not exist on the branch. Callers should fall back to a create.
type FileNotFoundError struct {
	Owner  string
	Repo   string
	Path   string
	Branch string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %q not found in %s/%s on branch %q", e.Path, e.Owner, e.Repo, e.Branch)
}

// RefConflictError is returned when a branch reference update is rejected as
/// non-fast-forward: another writer moved the branch head since ExpectedSHA
// was read. The caller may refetch the ref and retry once; this package
// never retries on its own.
type RefConflictError struct {
	Owner       string
	Repo        string
	Branch      string
	ExpectedSHA string
}

func (e *RefConflictError) Error() string {
	return fmt.Sprintf(
		"non-fast-forward update of refs/heads/%s rejected for %s/%s (branch head moved past %s)",
		e.Branch, e.Owner, e.Repo, e.ExpectedSHA,
	)
}

// apiErr wraps a failed REST call with its operation context.
func apiErr(operation, owner, repo, branch string, resp *github.Response, err error) *APIError {
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	return &APIError{
		Operation:  operation,
		Owner:      owner,
		Repo:       repo,
		Branch:     branch,
		StatusCode: statusCode,
		Underlying: err,
	}
}

// isNotFound reports whether a REST call failed with HTTP 404. Only a
/// genuine 404 counts: transport failures and server errors must not be
// mistaken for absence.
func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// isRefConflict reports whether a ref update was rejected as non-fast-forward.
// GitHub answers 422 for a stale expected head and 409 for a concurrent move.
func isRefConflict(resp *github.Response, err error) bool {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if status == 0 {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
	}
	return status == http.StatusConflict || status == http.StatusUnprocessableEntity
}
