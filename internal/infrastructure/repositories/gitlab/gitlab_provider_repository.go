package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/pagination"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/transport"
)

const (
	providerName          = entities.ProviderGitLab
	defaultHost           = "gitlab.com"
	perPage               = 100
	projectSlugAnnotation = "gitlab.com/project-slug"
	stateOpened           = "opened"
)

//nolint:gochecknoglobals // fixed lookup order
var codeOwnersPaths = []string{"CODEOWNERS", "docs/CODEOWNERS", ".gitlab/CODEOWNERS"}

// GitLabProviderRepository implements repositories.ProviderRepository for
// GitLab.com and self-managed GitLab.
type GitLabProviderRepository struct {
	client     *gl.Client
	host       string
	branchName string
	maxPages   int
}

// NewProviderRepository creates a GitLab provider for one import session.
func NewProviderRepository(
	settings entities.ProviderSettings,
	importSettings entities.ImportSettings,
) (repositories.ProviderRepository, error) {
	if settings.Token == "" {
		return nil, fmt.Errorf("%w: GitLab token is empty", entities.ErrProviderNotConfigured)
	}

	httpClient := transport.NewClient(transport.ClientOptions{
		Provider:    providerName,
		Tokens:      transport.NewTokenCache(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.Token})),
		Timeout:     importSettings.RequestTimeout,
		ReadRetries: importSettings.ReadRetries,
	})

	limiter := transport.NewLimiter(settings.RateLimit)
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	options := []gl.ClientOptionFunc{
		gl.WithHTTPClient(httpClient),
		// reads are retried by the session transport, mutations never are
		gl.WithoutRetries(),
		gl.WithCustomLimiter(limiter),
	}
	if settings.BaseURL != "" {
		options = append(options, gl.WithBaseURL(settings.BaseURL))
	}

	// the bearer header is set by the session transport
	client, err := gl.NewOAuthClient("", options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	host := defaultHost
	if settings.BaseURL != "" {
		host = entities.HostOf(settings.BaseURL)
	}

	return &GitLabProviderRepository{
		client:     client,
		host:       host,
		branchName: importSettings.BranchName,
		maxPages:   importSettings.MaxPages,
	}, nil
}

func (p *GitLabProviderRepository) Name() string { return providerName }

func (p *GitLabProviderRepository) MatchesURL(rawURL string) bool {
	return entities.HostOf(rawURL) == p.host
}

// ParseRepositoryURL keeps every namespace segment, so projects in subgroups resolve.
func (p *GitLabProviderRepository) ParseRepositoryURL(rawURL string) (entities.RepositoryLocation, error) {
	return entities.ParseRepositoryURL(rawURL, true)
}

func (p *GitLabProviderRepository) IntegrationBranch() string     { return p.branchName }
func (p *GitLabProviderRepository) CodeOwnersPaths() []string     { return codeOwnersPaths }
func (p *GitLabProviderRepository) ProjectSlugAnnotation() string { return projectSlugAnnotation }

func (p *GitLabProviderRepository) FileURL(repo entities.Repository, branch, path string) string {
	return fmt.Sprintf("%s/-/blob/%s/%s", strings.TrimSuffix(repo.URL, "/"), branch, strings.TrimPrefix(path, "/"))
}

func (p *GitLabProviderRepository) GetRepository(
	ctx context.Context,
	org, name string,
) (entities.Lookup[entities.Repository], error) {
	project, resp, err := p.client.Projects.GetProject(org+"/"+name, nil, gl.WithContext(ctx))
	if err != nil {
		if isNotFound(resp) {
			return entities.Absent[entities.Repository](), nil
		}
		return entities.Lookup[entities.Repository]{}, fmt.Errorf(
			"failed to get project %s/%s: %w", org, name, classify(resp, err),
		)
	}
	return entities.Found(toRepository(project)), nil
}

// GetContributorsCount walks the contributor pages. A project without any
// commit answers 404, which counts as no contributors; hitting the page cap
// proves the project is not empty, so the partial count is returned.
func (p *GitLabProviderRepository) GetContributorsCount(ctx context.Context, repo entities.Repository) (int, error) {
	pid := repo.FullName()
	pages := pagination.Pages(ctx, p.maxPages, func(ctx context.Context, cursor string) ([]*gl.Contributor, string, error) {
		opts := &gl.ListContributorsOptions{ListOptions: gl.ListOptions{PerPage: perPage}}
		assign(&opts.Page, pagination.PageNumber(cursor))

		contributors, resp, err := p.client.Repositories.Contributors(pid, opts, gl.WithContext(ctx))
		if err != nil {
			if isNotFound(resp) {
				return nil, "", nil
			}
			return nil, "", classify(resp, err)
		}
		return contributors, pagination.NextCursor(int(resp.NextPage)), nil
	})

	count, err := pagination.Count(pages)
	if errors.Is(err, pagination.ErrPageLimitReached) {
		return count, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list contributors of %s: %w", pid, err)
	}
	return count, nil
}

func (p *GitLabProviderRepository) GetFileContent(
	ctx context.Context,
	repo entities.Repository,
	branch, path string,
) (entities.Lookup[string], error) {
	raw, resp, err := p.client.RepositoryFiles.GetRawFile(
		repo.FullName(), path,
		&gl.GetRawFileOptions{Ref: gl.Ptr(branch)},
		gl.WithContext(ctx),
	)
	if err != nil {
		if isNotFound(resp) {
			return entities.Absent[string](), nil
		}
		return entities.Lookup[string]{}, fmt.Errorf(
			"failed to get file %q of %s: %w", path, repo.FullName(), classify(resp, err),
		)
	}
	return entities.Found(string(raw)), nil
}

// FindOpenChangeRequest looks for an open merge request from the integration
// branch, which is the branch every metadata file change is pushed to.
func (p *GitLabProviderRepository) FindOpenChangeRequest(
	ctx context.Context,
	repo entities.Repository,
	path string,
) (entities.Lookup[entities.PullRequest], error) {
	pid := repo.FullName()
	pages := pagination.Pages(ctx, p.maxPages, func(ctx context.Context, cursor string) ([]entities.PullRequest, string, error) {
		opts := &gl.ListProjectMergeRequestsOptions{
			ListOptions:  gl.ListOptions{PerPage: perPage},
			State:        gl.Ptr(stateOpened),
			SourceBranch: gl.Ptr(p.branchName),
		}
		assign(&opts.Page, pagination.PageNumber(cursor))

		mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(pid, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, "", classify(resp, err)
		}

		items := make([]entities.PullRequest, 0, len(mrs))
		for _, mr := range mrs {
			item := entities.PullRequest{
				Number:       int(mr.IID),
				Title:        mr.Title,
				URL:          mr.WebURL,
				SourceBranch: mr.SourceBranch,
			}
			if mr.UpdatedAt != nil {
				item.UpdatedAt = *mr.UpdatedAt
			}
			items = append(items, item)
		}
		return items, pagination.NextCursor(int(resp.NextPage)), nil
	})

	mr, found, err := pagination.Find(pages, func(mr entities.PullRequest) bool {
		return mr.SourceBranch == p.branchName
	})
	if err != nil {
		return entities.Lookup[entities.PullRequest]{}, fmt.Errorf(
			"failed to list merge requests of %s: %w", pid, err,
		)
	}
	if !found {
		return entities.Absent[entities.PullRequest](), nil
	}

	logger.Debugf("[%s] Found open merge request !%d for %s in %s", providerName, mr.Number, path, pid)
	return entities.Found(mr), nil
}

func (p *GitLabProviderRepository) EnsureIntegrationBranch(
	ctx context.Context,
	repo entities.Repository,
	baseBranch string,
) (entities.Branch, error) {
	pid := repo.FullName()
	branch, resp, err := p.client.Branches.GetBranch(pid, p.branchName, gl.WithContext(ctx))
	if err == nil {
		return toBranch(branch), nil
	}
	if !isNotFound(resp) {
		return entities.Branch{}, fmt.Errorf("failed to get branch %q: %w", p.branchName, classify(resp, err))
	}

	branch, resp, err = p.client.Branches.CreateBranch(pid, &gl.CreateBranchOptions{
		Branch: gl.Ptr(p.branchName),
		Ref:    gl.Ptr(baseBranch),
	}, gl.WithContext(ctx))
	if err != nil {
		if !hasStatus(resp, http.StatusBadRequest) {
			return entities.Branch{}, fmt.Errorf("failed to create branch %q: %w", p.branchName, classify(resp, err))
		}

		// created concurrently since the lookup above
		branch, resp, err = p.client.Branches.GetBranch(pid, p.branchName, gl.WithContext(ctx))
		if err != nil {
			return entities.Branch{}, fmt.Errorf("failed to get branch %q: %w", p.branchName, classify(resp, err))
		}
	}

	logger.Infof("[%s] Created branch %q from %q in %s", providerName, p.branchName, baseBranch, pid)
	return toBranch(branch), nil
}

func (p *GitLabProviderRepository) CreateOrUpdateChangeRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.ChangeRequestInput,
) (*entities.PullRequest, error) {
	existing := input.Existing
	if existing == nil {
		lookup, err := p.FindOpenChangeRequest(ctx, repo, input.Path)
		if err != nil {
			return nil, err
		}
		if mr, found := lookup.Get(); found {
			existing = &mr
		}
	}

	branch := input.Branch
	if branch == "" {
		branch = p.branchName
	}
	if err := p.commitFile(ctx, repo, branch, input); err != nil {
		return nil, err
	}

	pid := repo.FullName()
	if existing != nil {
		updated, resp, err := p.client.MergeRequests.UpdateMergeRequest(pid, int64(existing.Number),
			&gl.UpdateMergeRequestOptions{
				Title:       gl.Ptr(input.Title),
				Description: gl.Ptr(input.Body),
			}, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to update merge request !%d: %w", existing.Number, classify(resp, err))
		}
		logger.Infof("[%s] Updated merge request !%d in %s", providerName, existing.Number, pid)
		return toPullRequest(updated), nil
	}

	created, resp, err := p.client.MergeRequests.CreateMergeRequest(pid, &gl.CreateMergeRequestOptions{
		Title:              gl.Ptr(input.Title),
		Description:        gl.Ptr(input.Body),
		SourceBranch:       gl.Ptr(branch),
		TargetBranch:       gl.Ptr(input.BaseBranch),
		RemoveSourceBranch: gl.Ptr(true),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", classify(resp, err))
	}

	logger.Infof("[%s] Opened merge request !%d in %s", providerName, created.IID, pid)
	return toPullRequest(created), nil
}

// commitFile writes the file on the branch, leaving the branch untouched
// when it already carries the same content.
func (p *GitLabProviderRepository) commitFile(
	ctx context.Context,
	repo entities.Repository,
	branch string,
	input entities.ChangeRequestInput,
) error {
	current, err := p.GetFileContent(ctx, repo, branch, input.Path)
	if err != nil {
		return err
	}

	content, found := current.Get()
	if found && content == input.Content {
		logger.Debugf("[%s] %s is up to date on %q in %s", providerName, input.Path, branch, repo.FullName())
		return nil
	}

	pid := repo.FullName()
	if !found {
		_, resp, createErr := p.client.RepositoryFiles.CreateFile(pid, input.Path, &gl.CreateFileOptions{
			Branch:        gl.Ptr(branch),
			Content:       gl.Ptr(input.Content),
			CommitMessage: gl.Ptr(input.CommitMessage),
		}, gl.WithContext(ctx))
		if createErr != nil {
			return fmt.Errorf("failed to create file %q: %w", input.Path, classify(resp, createErr))
		}
		return nil
	}

	_, resp, err := p.client.RepositoryFiles.UpdateFile(pid, input.Path, &gl.UpdateFileOptions{
		Branch:        gl.Ptr(branch),
		Content:       gl.Ptr(input.Content),
		CommitMessage: gl.Ptr(input.CommitMessage),
	}, gl.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to update file %q: %w", input.Path, classify(resp, err))
	}
	return nil
}

func (p *GitLabProviderRepository) ListOrganizations(
	ctx context.Context,
	opts entities.ListOptions,
) (entities.Page[entities.Organization], error) {
	listOpts := &gl.ListGroupsOptions{}
	assign(&listOpts.Page, opts.Page)
	assign(&listOpts.PerPage, opts.PerPage)
	if opts.Search != "" {
		listOpts.Search = gl.Ptr(opts.Search)
	}

	groups, resp, err := p.client.Groups.ListGroups(listOpts, gl.WithContext(ctx))
	if err != nil {
		return entities.Page[entities.Organization]{}, fmt.Errorf("failed to list groups: %w", classify(resp, err))
	}

	items := make([]entities.Organization, 0, len(groups))
	for _, group := range groups {
		items = append(items, entities.Organization{
			ID:           strconv.FormatInt(int64(group.ID), 10),
			Name:         group.FullPath,
			URL:          group.WebURL,
			Description:  group.Description,
			ProviderName: providerName,
		})
	}
	return entities.Page[entities.Organization]{Items: items, NextPage: int(resp.NextPage)}, nil
}

func (p *GitLabProviderRepository) ListRepositories(
	ctx context.Context,
	org string,
	opts entities.ListOptions,
) (entities.Page[entities.Repository], error) {
	var search *string
	if opts.Search != "" {
		search = gl.Ptr(opts.Search)
	}

	var (
		projects []*gl.Project
		resp     *gl.Response
		err      error
	)
	if org != "" {
		groupOpts := &gl.ListGroupProjectsOptions{Search: search, IncludeSubGroups: gl.Ptr(true)}
		assign(&groupOpts.Page, opts.Page)
		assign(&groupOpts.PerPage, opts.PerPage)
		projects, resp, err = p.client.Groups.ListGroupProjects(org, groupOpts, gl.WithContext(ctx))
	} else {
		projectOpts := &gl.ListProjectsOptions{Search: search, Membership: gl.Ptr(true)}
		assign(&projectOpts.Page, opts.Page)
		assign(&projectOpts.PerPage, opts.PerPage)
		projects, resp, err = p.client.Projects.ListProjects(projectOpts, gl.WithContext(ctx))
	}
	if err != nil {
		return entities.Page[entities.Repository]{}, fmt.Errorf("failed to list projects: %w", classify(resp, err))
	}

	items := make([]entities.Repository, 0, len(projects))
	for _, project := range projects {
		items = append(items, toRepository(project))
	}
	return entities.Page[entities.Repository]{Items: items, NextPage: int(resp.NextPage)}, nil
}

func toRepository(project *gl.Project) entities.Repository {
	repo := entities.Repository{
		Name:          project.Path,
		URL:           project.WebURL,
		DefaultBranch: project.DefaultBranch,
		ProviderName:  providerName,
	}
	if project.Namespace != nil {
		repo.Organization = project.Namespace.FullPath
	} else {
		repo.Organization = strings.TrimSuffix(project.PathWithNamespace, "/"+project.Path)
	}
	switch {
	case project.UpdatedAt != nil:
		repo.UpdatedAt = *project.UpdatedAt
	case project.LastActivityAt != nil:
		repo.UpdatedAt = *project.LastActivityAt
	}
	return repo
}

func toBranch(branch *gl.Branch) entities.Branch {
	result := entities.Branch{Name: branch.Name}
	if branch.Commit != nil {
		result.SHA = branch.Commit.ID
		if branch.Commit.CommittedDate != nil {
			result.CommittedAt = *branch.Commit.CommittedDate
		}
	}
	return result
}

func toPullRequest(mr *gl.MergeRequest) *entities.PullRequest {
	result := &entities.PullRequest{
		Number:       int(mr.IID),
		Title:        mr.Title,
		URL:          mr.WebURL,
		SourceBranch: mr.SourceBranch,
	}
	if mr.UpdatedAt != nil {
		result.UpdatedAt = *mr.UpdatedAt
	}
	return result
}

// assign stores an int into a client-go integer field whatever its width.
func assign[N ~int | ~int64](dst *N, value int) {
	*dst = N(value)
}
