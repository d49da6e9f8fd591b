package gitlab

import (
	"errors"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// classify converts a client-go failure into an *entities.BackendError that
// keeps the message GitLab returned.
func classify(resp *gl.Response, err error) error {
	var errResp *gl.ErrorResponse
	if errors.As(err, &errResp) {
		return entities.NewBackendError(providerName, statusOf(errResp.Response), errResp.Message)
	}

	status := 0
	if resp != nil {
		status = statusOf(resp.Response)
	}
	return entities.NewBackendError(providerName, status, err.Error())
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func hasStatus(resp *gl.Response, status int) bool {
	return resp != nil && resp.Response != nil && resp.StatusCode == status
}

func isNotFound(resp *gl.Response) bool {
	return hasStatus(resp, http.StatusNotFound)
}
