package entities

import (
	"fmt"
	"strings"
)

// ApprovalTool identifies the VCS backend that carries the change request for an import.
type ApprovalTool string

const (
	ApprovalToolGit    ApprovalTool = "GIT"
	ApprovalToolGitHub ApprovalTool = "GITHUB"
	ApprovalToolGitLab ApprovalTool = "GITLAB"
)

const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// ProviderName maps the approval tool onto the registered provider type.
// "GIT" is the historical name of the GitHub approval tool and is kept as an alias.
func (t ApprovalTool) ProviderName() (string, bool) {
	switch ApprovalTool(strings.ToUpper(strings.TrimSpace(string(t)))) {
	case ApprovalToolGit, ApprovalToolGitHub:
		return ProviderGitHub, true
	case ApprovalToolGitLab:
		return ProviderGitLab, true
	default:
		return "", false
	}
}

// RepositoryInput is the repository as submitted by the caller.
type RepositoryInput struct {
	URL           string `json:"url"                     yaml:"url"`
	DefaultBranch string `json:"defaultBranch,omitempty" yaml:"defaultBranch,omitempty"`
}

// PullRequestOptions overrides the generated change request text.
type PullRequestOptions struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Body  string `json:"body,omitempty"  yaml:"body,omitempty"`
}

// ChangeRequestOptions holds the backend-specific options nested under the approval tool key.
type ChangeRequestOptions struct {
	PullRequest *PullRequestOptions `json:"pullRequest,omitempty" yaml:"pullRequest,omitempty"`
}

// ImportRequest is one item of an import batch.
type ImportRequest struct {
	ApprovalTool                ApprovalTool          `json:"approvalTool"                          yaml:"approvalTool"`
	Repository                  RepositoryInput       `json:"repository"                            yaml:"repository"`
	CatalogEntityName           string                `json:"catalogEntityName,omitempty"           yaml:"catalogEntityName,omitempty"`
	CodeOwnersFileAsEntityOwner bool                  `json:"codeOwnersFileAsEntityOwner,omitempty" yaml:"codeOwnersFileAsEntityOwner,omitempty"`
	CatalogInfoContent          string                `json:"catalogInfoContent,omitempty"          yaml:"catalogInfoContent,omitempty"`
	GitHub                      *ChangeRequestOptions `json:"github,omitempty"                      yaml:"github,omitempty"`
	GitLab                      *ChangeRequestOptions `json:"gitlab,omitempty"                      yaml:"gitlab,omitempty"`
}

// PullRequestOptionsFor returns the caller overrides for the given provider, or zero values.
func (r ImportRequest) PullRequestOptionsFor(providerName string) PullRequestOptions {
	var opts *ChangeRequestOptions
	switch providerName {
	case ProviderGitHub:
		opts = r.GitHub
	case ProviderGitLab:
		opts = r.GitLab
	}
	if opts == nil || opts.PullRequest == nil {
		return PullRequestOptions{}
	}
	return *opts.PullRequest
}

// ValidateBatch rejects an empty batch or an item without a repository URL.
// An unknown approval tool is not a shape error: it fails only its own item.
func ValidateBatch(requests []ImportRequest) error {
	if len(requests) == 0 {
		return ErrEmptyBatch
	}
	for i, req := range requests {
		if strings.TrimSpace(req.Repository.URL) == "" {
			return fmt.Errorf("%w: item %d has no repository.url", ErrInvalidImportRequest, i)
		}
	}
	return nil
}
