//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

const defaultRequestURL = "https://github.com/acme/widgets"

// ImportRequestBuilder helps create import request items with a fluent interface.
type ImportRequestBuilder struct {
	*testkit.BaseBuilder
	approvalTool      entities.ApprovalTool
	url               string
	defaultBranch     string
	entityName        string
	codeOwnersAsOwner bool
	content           string
	pullRequest       *entities.PullRequestOptions
}

// NewImportRequestBuilder creates a new builder for a GitHub item with sensible defaults.
func NewImportRequestBuilder() *ImportRequestBuilder {
	return &ImportRequestBuilder{
		BaseBuilder:  testkit.NewBaseBuilder(),
		approvalTool: entities.ApprovalToolGitHub,
		url:          defaultRequestURL,
	}
}

// WithApprovalTool sets the approval tool.
func (b *ImportRequestBuilder) WithApprovalTool(tool entities.ApprovalTool) *ImportRequestBuilder {
	b.approvalTool = tool
	return b
}

// WithURL sets the repository URL.
func (b *ImportRequestBuilder) WithURL(url string) *ImportRequestBuilder {
	b.url = url
	return b
}

// WithDefaultBranch sets the default branch claimed by the caller.
func (b *ImportRequestBuilder) WithDefaultBranch(branch string) *ImportRequestBuilder {
	b.defaultBranch = branch
	return b
}

// WithCatalogEntityName sets the catalog entity name.
func (b *ImportRequestBuilder) WithCatalogEntityName(name string) *ImportRequestBuilder {
	b.entityName = name
	return b
}

// WithCodeOwnersAsOwner makes the CODEOWNERS file the entity owner.
func (b *ImportRequestBuilder) WithCodeOwnersAsOwner() *ImportRequestBuilder {
	b.codeOwnersAsOwner = true
	return b
}

// WithCatalogInfoContent sets the metadata file content to propose.
func (b *ImportRequestBuilder) WithCatalogInfoContent(content string) *ImportRequestBuilder {
	b.content = content
	return b
}

// WithPullRequest overrides the change request title and body.
func (b *ImportRequestBuilder) WithPullRequest(title, body string) *ImportRequestBuilder {
	b.pullRequest = &entities.PullRequestOptions{Title: title, Body: body}
	return b
}

// Build creates the import request (satisfies testkit.Builder interface).
func (b *ImportRequestBuilder) Build() interface{} {
	return b.BuildImportRequest()
}

// BuildImportRequest creates the import request with a concrete return type.
func (b *ImportRequestBuilder) BuildImportRequest() entities.ImportRequest {
	req := entities.ImportRequest{
		ApprovalTool: b.approvalTool,
		Repository: entities.RepositoryInput{
			URL:           b.url,
			DefaultBranch: b.defaultBranch,
		},
		CatalogEntityName:           b.entityName,
		CodeOwnersFileAsEntityOwner: b.codeOwnersAsOwner,
		CatalogInfoContent:          b.content,
	}
	if b.pullRequest != nil {
		options := &entities.ChangeRequestOptions{PullRequest: b.pullRequest}
		switch providerName, _ := b.approvalTool.ProviderName(); providerName {
		case entities.ProviderGitLab:
			req.GitLab = options
		default:
			req.GitHub = options
		}
	}
	return req
}

// Reset clears the builder state, allowing it to be reused.
func (b *ImportRequestBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.approvalTool = entities.ApprovalToolGitHub
	b.url = defaultRequestURL
	b.defaultBranch = ""
	b.entityName = ""
	b.codeOwnersAsOwner = false
	b.content = ""
	b.pullRequest = nil
	return b
}

// Clone creates a deep copy of the ImportRequestBuilder.
func (b *ImportRequestBuilder) Clone() testkit.Builder {
	clone := *b
	clone.BaseBuilder = b.BaseBuilder.Clone().(*testkit.BaseBuilder)
	if b.pullRequest != nil {
		pullRequest := *b.pullRequest
		clone.pullRequest = &pullRequest
	}
	return &clone
}
