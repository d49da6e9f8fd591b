package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/pagination"
	"github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/transport"
)

const (
	providerName          = entities.ProviderGitHub
	defaultHost           = "github.com"
	perPage               = 100
	projectSlugAnnotation = "github.com/project-slug"
	stateOpen             = "open"
	headsPrefix           = "refs/heads/"
)

//nolint:gochecknoglobals // fixed lookup order
var codeOwnersPaths = []string{".github/CODEOWNERS", "CODEOWNERS", "docs/CODEOWNERS"}

// GitHubProviderRepository implements repositories.ProviderRepository for
// GitHub and GitHub Enterprise Server.
type GitHubProviderRepository struct {
	client     *gh.Client
	host       string
	branchName string
	maxPages   int
}

// NewProviderRepository creates a GitHub provider for one import session.
// It authenticates with a personal access token, or as a GitHub App
// installation when the App settings are present.
func NewProviderRepository(
	settings entities.ProviderSettings,
	importSettings entities.ImportSettings,
) (repositories.ProviderRepository, error) {
	source, err := newTokenSource(settings, importSettings)
	if err != nil {
		return nil, err
	}

	httpClient := transport.NewClient(transport.ClientOptions{
		Provider:    providerName,
		Tokens:      transport.NewTokenCache(source),
		Timeout:     importSettings.RequestTimeout,
		ReadRetries: importSettings.ReadRetries,
		Limiter:     transport.NewLimiter(settings.RateLimit),
	})
	client, err := newClient(httpClient, settings.BaseURL)
	if err != nil {
		return nil, err
	}

	return newGitHubProviderRepository(client, webHost(settings.BaseURL), importSettings), nil
}

func newGitHubProviderRepository(
	client *gh.Client,
	host string,
	importSettings entities.ImportSettings,
) *GitHubProviderRepository {
	return &GitHubProviderRepository{
		client:     client,
		host:       host,
		branchName: importSettings.BranchName,
		maxPages:   importSettings.MaxPages,
	}
}

func newTokenSource(
	settings entities.ProviderSettings,
	importSettings entities.ImportSettings,
) (oauth2.TokenSource, error) {
	if settings.App == nil {
		if settings.Token == "" {
			return nil, fmt.Errorf("%w: GitHub token is empty", entities.ErrProviderNotConfigured)
		}
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.Token}), nil
	}

	// the installation token exchange itself is signed with a JWT, not a token
	appClient, err := newClient(transport.NewClient(transport.ClientOptions{
		Provider: providerName,
		Timeout:  importSettings.RequestTimeout,
	}), settings.BaseURL)
	if err != nil {
		return nil, err
	}
	return newAppTokenSource(settings.App, appClient, importSettings.RequestTimeout)
}

func newClient(httpClient *http.Client, baseURL string) (*gh.Client, error) {
	client := gh.NewClient(httpClient)
	if baseURL == "" {
		return client, nil
	}

	enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", baseURL, err)
	}
	return enterprise, nil
}

// webHost is the host repository URLs carry, derived from the API base URL.
func webHost(baseURL string) string {
	if baseURL == "" {
		return defaultHost
	}
	return strings.TrimPrefix(entities.HostOf(baseURL), "api.")
}

func (p *GitHubProviderRepository) Name() string { return providerName }

func (p *GitHubProviderRepository) MatchesURL(rawURL string) bool {
	return entities.HostOf(rawURL) == p.host
}

func (p *GitHubProviderRepository) ParseRepositoryURL(rawURL string) (entities.RepositoryLocation, error) {
	return entities.ParseRepositoryURL(rawURL, false)
}

func (p *GitHubProviderRepository) IntegrationBranch() string     { return p.branchName }
func (p *GitHubProviderRepository) CodeOwnersPaths() []string     { return codeOwnersPaths }
func (p *GitHubProviderRepository) ProjectSlugAnnotation() string { return projectSlugAnnotation }

func (p *GitHubProviderRepository) FileURL(repo entities.Repository, branch, path string) string {
	return fmt.Sprintf("%s/blob/%s/%s", strings.TrimSuffix(repo.URL, "/"), branch, strings.TrimPrefix(path, "/"))
}

func (p *GitHubProviderRepository) GetRepository(
	ctx context.Context,
	org, name string,
) (entities.Lookup[entities.Repository], error) {
	repository, resp, err := p.client.Repositories.Get(ctx, org, name)
	if err != nil {
		if isNotFound(resp) {
			return entities.Absent[entities.Repository](), nil
		}
		return entities.Lookup[entities.Repository]{}, fmt.Errorf(
			"failed to get repository %s/%s: %w", org, name, classify(resp, err),
		)
	}
	return entities.Found(toRepository(repository)), nil
}

// GetContributorsCount asks for one contributor per page, so the number of
// the last page is the number of contributors. An empty repository answers
// 204 without a body, which decodes to no contributors.
func (p *GitHubProviderRepository) GetContributorsCount(ctx context.Context, repo entities.Repository) (int, error) {
	contributors, resp, err := p.client.Repositories.ListContributors(
		ctx, repo.Organization, repo.Name,
		&gh.ListContributorsOptions{ListOptions: gh.ListOptions{PerPage: 1}},
	)
	if err != nil {
		if isNotFound(resp) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list contributors of %s: %w", repo.FullName(), classify(resp, err))
	}
	if resp.LastPage > 0 {
		return resp.LastPage, nil
	}
	return len(contributors), nil
}

func (p *GitHubProviderRepository) GetFileContent(
	ctx context.Context,
	repo entities.Repository,
	branch, path string,
) (entities.Lookup[string], error) {
	fileContent, _, resp, err := p.client.Repositories.GetContents(
		ctx, repo.Organization, repo.Name, path,
		&gh.RepositoryContentGetOptions{Ref: branch},
	)
	if err != nil {
		if isNotFound(resp) {
			return entities.Absent[string](), nil
		}
		return entities.Lookup[string]{}, fmt.Errorf(
			"failed to get file %q of %s: %w", path, repo.FullName(), classify(resp, err),
		)
	}
	if fileContent == nil {
		// the path is a directory
		return entities.Absent[string](), nil
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return entities.Lookup[string]{}, fmt.Errorf("failed to decode file %q: %w", path, err)
	}
	return entities.Found(content), nil
}

// FindOpenChangeRequest looks for an open pull request whose head is the
// integration branch, which is the branch every metadata file change is pushed to.
func (p *GitHubProviderRepository) FindOpenChangeRequest(
	ctx context.Context,
	repo entities.Repository,
	path string,
) (entities.Lookup[entities.PullRequest], error) {
	pages := pagination.Pages(ctx, p.maxPages, func(ctx context.Context, cursor string) ([]*gh.PullRequest, string, error) {
		prs, resp, err := p.client.PullRequests.List(ctx, repo.Organization, repo.Name, &gh.PullRequestListOptions{
			State:       stateOpen,
			Head:        repo.Organization + ":" + p.branchName,
			ListOptions: gh.ListOptions{Page: pagination.PageNumber(cursor), PerPage: perPage},
		})
		if err != nil {
			return nil, "", classify(resp, err)
		}
		return prs, pagination.NextCursor(resp.NextPage), nil
	})

	pr, found, err := pagination.Find(pages, func(pr *gh.PullRequest) bool {
		return pr.GetHead().GetRef() == p.branchName
	})
	if err != nil {
		return entities.Lookup[entities.PullRequest]{}, fmt.Errorf(
			"failed to list pull requests of %s: %w", repo.FullName(), err,
		)
	}
	if !found {
		return entities.Absent[entities.PullRequest](), nil
	}

	logger.Debugf("[%s] Found open pull request #%d for %s in %s", providerName, pr.GetNumber(), path, repo.FullName())
	return entities.Found(toPullRequest(pr)), nil
}

func (p *GitHubProviderRepository) EnsureIntegrationBranch(
	ctx context.Context,
	repo entities.Repository,
	baseBranch string,
) (entities.Branch, error) {
	ref, resp, err := p.client.Git.GetRef(ctx, repo.Organization, repo.Name, headsPrefix+p.branchName)
	if err == nil {
		return p.toBranch(ctx, repo, ref)
	}
	if !isNotFound(resp) {
		return entities.Branch{}, fmt.Errorf("failed to get branch %q: %w", p.branchName, classify(resp, err))
	}

	baseRef, resp, err := p.client.Git.GetRef(ctx, repo.Organization, repo.Name, headsPrefix+baseBranch)
	if err != nil {
		return entities.Branch{}, fmt.Errorf("failed to get base branch %q: %w", baseBranch, classify(resp, err))
	}

	branchRef := headsPrefix + p.branchName
	created, resp, err := p.client.Git.CreateRef(ctx, repo.Organization, repo.Name, &gh.Reference{
		Ref:    &branchRef,
		Object: &gh.GitObject{SHA: baseRef.Object.SHA},
	})
	if err != nil {
		if !hasStatus(resp, http.StatusUnprocessableEntity) {
			return entities.Branch{}, fmt.Errorf("failed to create branch %q: %w", p.branchName, classify(resp, err))
		}

		// created concurrently since the lookup above
		created, resp, err = p.client.Git.GetRef(ctx, repo.Organization, repo.Name, branchRef)
		if err != nil {
			return entities.Branch{}, fmt.Errorf("failed to get branch %q: %w", p.branchName, classify(resp, err))
		}
	}

	logger.Infof("[%s] Created branch %q from %q in %s", providerName, p.branchName, baseBranch, repo.FullName())
	return p.toBranch(ctx, repo, created)
}

func (p *GitHubProviderRepository) CreateOrUpdateChangeRequest(
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
		if pr, found := lookup.Get(); found {
			existing = &pr
		}
	}

	branch := input.Branch
	if branch == "" {
		branch = p.branchName
	}
	if err := p.commitFile(ctx, repo, branch, input); err != nil {
		return nil, err
	}

	if existing != nil {
		updated, resp, err := p.client.PullRequests.Edit(ctx, repo.Organization, repo.Name, existing.Number,
			&gh.PullRequest{Title: &input.Title, Body: &input.Body})
		if err != nil {
			return nil, fmt.Errorf("failed to update pull request #%d: %w", existing.Number, classify(resp, err))
		}
		logger.Infof("[%s] Updated pull request #%d in %s", providerName, existing.Number, repo.FullName())
		result := toPullRequest(updated)
		return &result, nil
	}

	maintainerCanModify := true
	created, resp, err := p.client.PullRequests.Create(ctx, repo.Organization, repo.Name, &gh.NewPullRequest{
		Title:               &input.Title,
		Head:                &branch,
		Base:                &input.BaseBranch,
		Body:                &input.Body,
		MaintainerCanModify: &maintainerCanModify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", classify(resp, err))
	}

	logger.Infof("[%s] Opened pull request #%d in %s", providerName, created.GetNumber(), repo.FullName())
	result := toPullRequest(created)
	return &result, nil
}

// commitFile writes the file on the branch, leaving the branch untouched
// when it already carries the same content.
func (p *GitHubProviderRepository) commitFile(
	ctx context.Context,
	repo entities.Repository,
	branch string,
	input entities.ChangeRequestInput,
) error {
	current, _, resp, err := p.client.Repositories.GetContents(
		ctx, repo.Organization, repo.Name, input.Path,
		&gh.RepositoryContentGetOptions{Ref: branch},
	)
	if err != nil && !isNotFound(resp) {
		return fmt.Errorf("failed to get file %q: %w", input.Path, classify(resp, err))
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: &input.CommitMessage,
		Content: []byte(input.Content),
		Branch:  &branch,
	}

	if current == nil {
		_, resp, err = p.client.Repositories.CreateFile(ctx, repo.Organization, repo.Name, input.Path, opts)
		if err != nil {
			return fmt.Errorf("failed to create file %q: %w", input.Path, classify(resp, err))
		}
		return nil
	}

	if content, decodeErr := current.GetContent(); decodeErr == nil && content == input.Content {
		logger.Debugf("[%s] %s is up to date on %q in %s", providerName, input.Path, branch, repo.FullName())
		return nil
	}

	opts.SHA = current.SHA
	_, resp, err = p.client.Repositories.UpdateFile(ctx, repo.Organization, repo.Name, input.Path, opts)
	if err != nil {
		return fmt.Errorf("failed to update file %q: %w", input.Path, classify(resp, err))
	}
	return nil
}

func (p *GitHubProviderRepository) ListOrganizations(
	ctx context.Context,
	opts entities.ListOptions,
) (entities.Page[entities.Organization], error) {
	orgs, resp, err := p.client.Organizations.List(ctx, "", &gh.ListOptions{Page: opts.Page, PerPage: opts.PerPage})
	if err != nil {
		return entities.Page[entities.Organization]{}, fmt.Errorf(
			"failed to list organizations: %w", classify(resp, err),
		)
	}

	items := make([]entities.Organization, 0, len(orgs))
	for _, org := range orgs {
		if !matchesSearch(org.GetLogin(), opts.Search) {
			continue
		}
		url := org.GetHTMLURL()
		if url == "" {
			url = "https://" + p.host + "/" + org.GetLogin()
		}
		items = append(items, entities.Organization{
			ID:           fmt.Sprint(org.GetID()),
			Name:         org.GetLogin(),
			URL:          url,
			Description:  org.GetDescription(),
			ProviderName: providerName,
		})
	}
	return entities.Page[entities.Organization]{Items: items, NextPage: resp.NextPage}, nil
}

func (p *GitHubProviderRepository) ListRepositories(
	ctx context.Context,
	org string,
	opts entities.ListOptions,
) (entities.Page[entities.Repository], error) {
	listOpts := gh.ListOptions{Page: opts.Page, PerPage: opts.PerPage}

	var (
		repos []*gh.Repository
		resp  *gh.Response
		err   error
	)
	switch {
	case org != "" && opts.Search != "":
		var result *gh.RepositoriesSearchResult
		result, resp, err = p.client.Search.Repositories(
			ctx, fmt.Sprintf("%s in:name org:%s", opts.Search, org),
			&gh.SearchOptions{ListOptions: listOpts},
		)
		if err == nil {
			repos = result.Repositories
		}
	case org != "":
		repos, resp, err = p.client.Repositories.ListByOrg(ctx, org,
			&gh.RepositoryListByOrgOptions{ListOptions: listOpts})
	default:
		repos, resp, err = p.client.Repositories.ListByAuthenticatedUser(ctx,
			&gh.RepositoryListByAuthenticatedUserOptions{ListOptions: listOpts})
	}
	if err != nil {
		return entities.Page[entities.Repository]{}, fmt.Errorf(
			"failed to list repositories: %w", classify(resp, err),
		)
	}

	items := make([]entities.Repository, 0, len(repos))
	for _, repo := range repos {
		if org == "" && !matchesSearch(repo.GetName(), opts.Search) {
			continue
		}
		items = append(items, toRepository(repo))
	}
	return entities.Page[entities.Repository]{Items: items, NextPage: resp.NextPage}, nil
}

func (p *GitHubProviderRepository) toBranch(
	ctx context.Context,
	repo entities.Repository,
	ref *gh.Reference,
) (entities.Branch, error) {
	sha := ref.GetObject().GetSHA()
	commit, resp, err := p.client.Git.GetCommit(ctx, repo.Organization, repo.Name, sha)
	if err != nil {
		return entities.Branch{}, fmt.Errorf("failed to get commit %s: %w", sha, classify(resp, err))
	}

	return entities.Branch{
		Name:        strings.TrimPrefix(ref.GetRef(), headsPrefix),
		SHA:         sha,
		CommittedAt: commit.GetCommitter().GetDate().Time,
	}, nil
}

func toRepository(repo *gh.Repository) entities.Repository {
	return entities.Repository{
		Name:          repo.GetName(),
		Organization:  repo.GetOwner().GetLogin(),
		URL:           repo.GetHTMLURL(),
		DefaultBranch: repo.GetDefaultBranch(),
		UpdatedAt:     repo.GetUpdatedAt().Time,
		ProviderName:  providerName,
	}
}

func toPullRequest(pr *gh.PullRequest) entities.PullRequest {
	return entities.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		URL:          pr.GetHTMLURL(),
		SourceBranch: pr.GetHead().GetRef(),
		UpdatedAt:    pr.GetUpdatedAt().Time,
	}
}

func matchesSearch(value, search string) bool {
	return search == "" || strings.Contains(strings.ToLower(value), strings.ToLower(search))
}
