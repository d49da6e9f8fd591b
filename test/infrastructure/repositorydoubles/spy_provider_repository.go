//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
)

// SpyProviderRepository implements repositories.ProviderRepository as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
// It is safe for concurrent use, so one spy can serve a whole batch.
type SpyProviderRepository struct {
	mu sync.Mutex

	// --- identity ---
	ProviderName string
	Host         string

	// --- GetRepository ---
	Repositories     map[string]entities.Repository // keyed by "org/name"
	GetRepositoryErr error

	// --- GetContributorsCount ---
	Contributors    int
	ContributorsErr error

	// --- GetFileContent ---
	Files          map[string]string // keyed by path
	FileContentErr error

	// --- FindOpenChangeRequest ---
	OpenChangeRequests map[string]entities.PullRequest // keyed by "org/name"
	FindOpenErr        error

	// --- EnsureIntegrationBranch ---
	Branch     entities.Branch
	BranchErr  error
	BranchErrs map[string]error // keyed by repository name

	// --- CreateOrUpdateChangeRequest ---
	CreatedChangeRequest *entities.PullRequest
	ChangeRequestErr     error

	// --- ListOrganizations / ListRepositories ---
	Organizations []entities.Organization
	Listed        []entities.Repository
	ListErr       error

	// PanicOn makes GetRepository panic for the repository with this name.
	PanicOn string

	// --- spy ---
	RequestedRepositories []string
	ReadPaths             []string
	ReadBranches          []string
	ChangeRequestInputs   []entities.ChangeRequestInput
	EnsuredBranches       []string
	ListCalls             int
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

// NewSpyProviderRepository creates a spy for the given provider name serving the repositories.
func NewSpyProviderRepository(providerName string, repos ...entities.Repository) *SpyProviderRepository {
	spy := &SpyProviderRepository{
		ProviderName:       providerName,
		Host:               providerName + ".com",
		Repositories:       map[string]entities.Repository{},
		Files:              map[string]string{},
		Contributors:       1,
		OpenChangeRequests: map[string]entities.PullRequest{},
		BranchErrs:         map[string]error{},
		Branch:             entities.Branch{Name: "backstage-integration", SHA: "abc123"},
	}
	for _, repo := range repos {
		spy.Repositories[repo.FullName()] = repo
	}
	return spy
}

func (p *SpyProviderRepository) Name() string { return p.ProviderName }

func (p *SpyProviderRepository) MatchesURL(rawURL string) bool {
	return entities.HostOf(rawURL) == p.Host
}

func (p *SpyProviderRepository) ParseRepositoryURL(rawURL string) (entities.RepositoryLocation, error) {
	return entities.ParseRepositoryURL(rawURL, false)
}

func (p *SpyProviderRepository) GetRepository(
	_ context.Context, org, name string,
) (entities.Lookup[entities.Repository], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := org + "/" + name
	p.RequestedRepositories = append(p.RequestedRepositories, key)
	if p.PanicOn != "" && p.PanicOn == name {
		panic(fmt.Sprintf("spy panic for %s", key))
	}
	if p.GetRepositoryErr != nil {
		return entities.Absent[entities.Repository](), p.GetRepositoryErr
	}
	repo, ok := p.Repositories[key]
	if !ok {
		return entities.Absent[entities.Repository](), nil
	}
	return entities.Found(repo), nil
}

func (p *SpyProviderRepository) GetContributorsCount(_ context.Context, _ entities.Repository) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Contributors, p.ContributorsErr
}

func (p *SpyProviderRepository) GetFileContent(
	_ context.Context, _ entities.Repository, branch, path string,
) (entities.Lookup[string], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadPaths = append(p.ReadPaths, path)
	p.ReadBranches = append(p.ReadBranches, branch)
	if p.FileContentErr != nil {
		return entities.Absent[string](), p.FileContentErr
	}
	content, ok := p.Files[path]
	if !ok {
		return entities.Absent[string](), nil
	}
	return entities.Found(content), nil
}

func (p *SpyProviderRepository) FindOpenChangeRequest(
	_ context.Context, repo entities.Repository, _ string,
) (entities.Lookup[entities.PullRequest], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FindOpenErr != nil {
		return entities.Absent[entities.PullRequest](), p.FindOpenErr
	}
	pr, ok := p.OpenChangeRequests[repo.FullName()]
	if !ok {
		return entities.Absent[entities.PullRequest](), nil
	}
	return entities.Found(pr), nil
}

func (p *SpyProviderRepository) EnsureIntegrationBranch(
	_ context.Context, repo entities.Repository, baseBranch string,
) (entities.Branch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EnsuredBranches = append(p.EnsuredBranches, baseBranch)
	if err, ok := p.BranchErrs[repo.Name]; ok {
		return entities.Branch{}, err
	}
	return p.Branch, p.BranchErr
}

// CreateOrUpdateChangeRequest records the input. A successful creation becomes
// the open change request, so a second import finds it.
func (p *SpyProviderRepository) CreateOrUpdateChangeRequest(
	_ context.Context, repo entities.Repository, input entities.ChangeRequestInput,
) (*entities.PullRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ChangeRequestInputs = append(p.ChangeRequestInputs, input)
	if p.ChangeRequestErr != nil {
		return nil, p.ChangeRequestErr
	}
	if input.Existing != nil {
		updated := *input.Existing
		updated.Title = input.Title
		return &updated, nil
	}

	number := len(p.OpenChangeRequests) + 1
	created := entities.PullRequest{
		Number:       number,
		Title:        input.Title,
		URL:          fmt.Sprintf("%s/pull/%d", repo.URL, number),
		SourceBranch: input.Branch,
	}
	if p.CreatedChangeRequest != nil {
		created = *p.CreatedChangeRequest
	}
	p.OpenChangeRequests[repo.FullName()] = created
	return &created, nil
}

func (p *SpyProviderRepository) IntegrationBranch() string { return "backstage-integration" }

func (p *SpyProviderRepository) CodeOwnersPaths() []string {
	return []string{"CODEOWNERS", "docs/CODEOWNERS"}
}

func (p *SpyProviderRepository) ProjectSlugAnnotation() string {
	return p.ProviderName + ".com/project-slug"
}

func (p *SpyProviderRepository) FileURL(repo entities.Repository, branch, path string) string {
	return fmt.Sprintf("%s/blob/%s/%s", repo.URL, branch, path)
}

func (p *SpyProviderRepository) ListOrganizations(
	_ context.Context, _ entities.ListOptions,
) (entities.Page[entities.Organization], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ListCalls++
	return entities.Page[entities.Organization]{Items: p.Organizations}, p.ListErr
}

func (p *SpyProviderRepository) ListRepositories(
	_ context.Context, _ string, _ entities.ListOptions,
) (entities.Page[entities.Repository], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ListCalls++
	return entities.Page[entities.Repository]{Items: p.Listed}, p.ListErr
}
