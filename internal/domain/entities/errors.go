package entities

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch              = errors.New("the import batch must contain at least one item")
	ErrInvalidImportRequest    = errors.New("invalid import request")
	ErrInvalidRepositoryURL    = errors.New("invalid repository URL")
	ErrRepositoryNotFound      = errors.New("repository not found")
	ErrUnsupportedApprovalTool = errors.New("unsupported approval tool")
	ErrProviderNotConfigured   = errors.New("no provider configured")
)

// BackendError is a failure reported by a VCS backend or the catalog, or a
// transport failure on the way there (StatusCode 0).
type BackendError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Provider, e.StatusCode, e.Message)
}

// NewBackendError builds a BackendError, falling back to a generic message so
// that the error list of an item is never left with an empty entry.
func NewBackendError(provider string, statusCode int, message string) *BackendError {
	if message == "" {
		message = fmt.Sprintf("unexpected response from %s", provider)
		if statusCode != 0 {
			message = fmt.Sprintf("unexpected status %d from %s", statusCode, provider)
		}
	}
	return &BackendError{Provider: provider, StatusCode: statusCode, Message: message}
}

// AsBackendError extracts a BackendError from the chain.
func AsBackendError(err error) (*BackendError, bool) {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr, true
	}
	return nil, false
}

// ErrorMessage is the text recorded in an item's error list: the backend
// message as-is for backend failures, the full error chain otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if backendErr, ok := AsBackendError(err); ok {
		return backendErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "unknown error"
}
