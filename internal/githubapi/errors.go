package githubapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	// ErrRemoteUnreachable indicates the request never produced an HTTP
	// response (DNS, TLS, connection refused). Callers degrade to their
	// last known snapshot when they see this.
	ErrRemoteUnreachable = errors.New("github: remote unreachable")

	// ErrNotFound indicates the repo, branch or path does not exist.
	ErrNotFound = errors.New("github: not found")

	// ErrPreconditionFailed indicates the expected content sha supplied with
	// a write no longer matches the remote object, i.e. the remote changed
	// after it was last observed.
	ErrPreconditionFailed = errors.New("github: expected sha does not match remote")
)

// APIError represents a structured GitHub API error response.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	DocsURL    string `json:"documentation_url"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error (%d): %s", e.StatusCode, e.Message)
}

func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("%s: %w: %w", operation, ErrRemoteUnreachable, requestErr)
	}

	// got a response, but api returned an error
	if resp.IsErrorState() {
		apiErr, ok := resp.ErrorResult().(*APIError)
		if !ok {
			apiErr = &APIError{Message: resp.String()}
		}
		apiErr.StatusCode = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", operation, ErrNotFound, apiErr)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: %w: %w", operation, ErrPreconditionFailed, apiErr)
		default:
			return fmt.Errorf("%s: %w", operation, apiErr)
		}
	}

	return nil
}
