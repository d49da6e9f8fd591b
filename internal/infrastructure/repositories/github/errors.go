package github

import (
	"errors"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// classify converts a go-github failure into an *entities.BackendError that
// keeps the message GitHub returned.
func classify(resp *gh.Response, err error) error {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) {
		return entities.NewBackendError(providerName, statusOf(errResp.Response), describe(errResp))
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return entities.NewBackendError(providerName, statusOf(rateErr.Response), rateErr.Message)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return entities.NewBackendError(providerName, statusOf(abuseErr.Response), abuseErr.Message)
	}

	status := 0
	if resp != nil {
		status = statusOf(resp.Response)
	}
	return entities.NewBackendError(providerName, status, err.Error())
}

func describe(errResp *gh.ErrorResponse) string {
	details := make([]string, 0, len(errResp.Errors))
	for _, detail := range errResp.Errors {
		if detail.Message != "" {
			details = append(details, detail.Message)
		}
	}
	if len(details) == 0 {
		return errResp.Message
	}
	return errResp.Message + ": " + strings.Join(details, "; ")
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func hasStatus(resp *gh.Response, status int) bool {
	return resp != nil && resp.Response != nil && resp.StatusCode == status
}

func isNotFound(resp *gh.Response) bool {
	return hasStatus(resp, http.StatusNotFound)
}
