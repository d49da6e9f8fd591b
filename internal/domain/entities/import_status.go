package entities

import "time"

// ImportStatusKind is the terminal state of a real-run import.
type ImportStatusKind string

const (
	StatusAdded          ImportStatusKind = "ADDED"
	StatusWaitPRApproval ImportStatusKind = "WAIT_PR_APPROVAL"
	StatusPRError        ImportStatusKind = "PR_ERROR"
)

// Dry-run finding codes, listed in the order they are reported.
const (
	ErrCodeCatalogEntityConflict  = "CATALOG_ENTITY_CONFLICT"
	ErrCodeCatalogInfoFileExists  = "CATALOG_INFO_FILE_EXISTS_IN_REPO"
	ErrCodeRepoEmpty              = "REPO_EMPTY"
	ErrCodeCodeOwnersFileNotFound = "CODEOWNERS_FILE_NOT_FOUND_IN_REPO"
)

// RepositoryRef is the derived repository identity echoed in results.
type RepositoryRef struct {
	Name          string `json:"name"`
	Organization  string `json:"organization"`
	URL           string `json:"url"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
}

// PullRequestRef points at a pull or merge request.
type PullRequestRef struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// ChangeRequestInfo is the provider-specific block of an ImportStatus.
type ChangeRequestInfo struct {
	PullRequest PullRequestRef `json:"pullRequest"`
}

// ImportStatus is one item of the response, aligned with the request order.
type ImportStatus struct {
	ApprovalTool      ApprovalTool       `json:"approvalTool,omitempty"`
	Status            ImportStatusKind   `json:"status,omitempty"`
	Errors            []string           `json:"errors"`
	Repository        RepositoryRef      `json:"repository"`
	CatalogEntityName string             `json:"catalogEntityName,omitempty"`
	LastUpdate        *time.Time         `json:"lastUpdate,omitempty"`
	GitHub            *ChangeRequestInfo `json:"github,omitempty"`
	GitLab            *ChangeRequestInfo `json:"gitlab,omitempty"`
}

// NewImportStatus starts a result for the given request with an empty error list.
// Only the URL is echoed; the rest of the repository is filled once resolved.
func NewImportStatus(req ImportRequest) ImportStatus {
	return ImportStatus{
		ApprovalTool:      req.ApprovalTool,
		Errors:            []string{},
		CatalogEntityName: req.CatalogEntityName,
		Repository:        RepositoryRef{URL: req.Repository.URL},
	}
}

// SetChangeRequest stores the pull/merge request under the key matching the provider.
func (s *ImportStatus) SetChangeRequest(providerName string, pr PullRequest) {
	info := &ChangeRequestInfo{PullRequest: PullRequestRef{Number: pr.Number, URL: pr.URL}}
	switch providerName {
	case ProviderGitHub:
		s.GitHub = info
	case ProviderGitLab:
		s.GitLab = info
	}
}

// Fail marks a real-run item as failed with the given messages.
func (s *ImportStatus) Fail(messages ...string) {
	s.Status = StatusPRError
	s.Errors = append(s.Errors, messages...)
}

// Touch sets lastUpdate when the timestamp is known.
func (s *ImportStatus) Touch(at time.Time) {
	if at.IsZero() {
		return
	}
	utc := at.UTC()
	s.LastUpdate = &utc
}
