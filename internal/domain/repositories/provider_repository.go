package repositories

import (
	"context"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// ProviderRepository abstracts a Git hosting service (GitHub, GitLab) behind
// the contract the import engine relies on.
//
// Reads that may legitimately find nothing return an entities.Lookup; every
// other failure is returned as an error wrapping *entities.BackendError, so a
// caller always handles found, absent, and backend failure separately.
type ProviderRepository interface {
	// Name returns the provider identifier ("github", "gitlab").
	Name() string

	// MatchesURL reports whether a repository URL is hosted by this provider instance.
	MatchesURL(rawURL string) bool

	// ParseRepositoryURL extracts the organization/namespace and name of a repository URL.
	ParseRepositoryURL(rawURL string) (entities.RepositoryLocation, error)

	// GetRepository fetches the default branch, last update and canonical URL.
	GetRepository(ctx context.Context, org, name string) (entities.Lookup[entities.Repository], error)

	// GetContributorsCount counts the contributors; zero is a valid answer.
	GetContributorsCount(ctx context.Context, repo entities.Repository) (int, error)

	// GetFileContent reads a file on the given branch.
	GetFileContent(
		ctx context.Context, repo entities.Repository, branch, path string,
	) (entities.Lookup[string], error)

	// FindOpenChangeRequest looks for the open change request carrying the metadata file.
	FindOpenChangeRequest(
		ctx context.Context, repo entities.Repository, path string,
	) (entities.Lookup[entities.PullRequest], error)

	// EnsureIntegrationBranch returns the integration branch, creating it from baseBranch if missing.
	EnsureIntegrationBranch(ctx context.Context, repo entities.Repository, baseBranch string) (entities.Branch, error)

	// CreateOrUpdateChangeRequest updates the open change request for the path or opens a new one.
	CreateOrUpdateChangeRequest(
		ctx context.Context, repo entities.Repository, input entities.ChangeRequestInput,
	) (*entities.PullRequest, error)

	// IntegrationBranch is the name of the branch carrying the metadata file.
	IntegrationBranch() string

	// CodeOwnersPaths lists where this backend looks for a CODEOWNERS file.
	CodeOwnersPaths() []string

	// ProjectSlugAnnotation is the catalog annotation linking an entity to its repository.
	ProjectSlugAnnotation() string

	// FileURL is the canonical web URL of a file, used as the catalog location target.
	FileURL(repo entities.Repository, branch, path string) string

	// ListOrganizations lists organizations (groups) visible to the credentials.
	ListOrganizations(ctx context.Context, opts entities.ListOptions) (entities.Page[entities.Organization], error)

	// ListRepositories lists repositories of an organization, or all visible ones when org is empty.
	ListRepositories(
		ctx context.Context, org string, opts entities.ListOptions,
	) (entities.Page[entities.Repository], error)
}
