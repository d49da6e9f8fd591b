package commands

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
)

const fallbackBranch = "main"

// Import is the interface for onboarding a single repository.
type Import interface {
	Execute(ctx context.Context, deps ImportDependencies, req entities.ImportRequest) entities.ImportStatus
	DryRun(ctx context.Context, deps ImportDependencies, req entities.ImportRequest) entities.ImportStatus
}

// ImportDependencies are the batch-scoped collaborators an item is imported with.
type ImportDependencies struct {
	Provider repositories.ProviderRepository
	Catalog  repositories.CatalogRepository
	Settings entities.ImportSettings
}

// ImportCommand decides, for one repository, whether to register its
// metadata file, open or update the change request adding one, or fail.
// Every failure is recorded in the returned status; nothing escapes.
type ImportCommand struct{}

// NewImportCommand creates a new ImportCommand.
func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

// Execute runs the real import:
// resolve repository -> register existing metadata (ADDED) ->
// update the open change request or open a new one (WAIT_PR_APPROVAL).
func (it *ImportCommand) Execute(
	ctx context.Context,
	deps ImportDependencies,
	req entities.ImportRequest,
) entities.ImportStatus {
	status := entities.NewImportStatus(req)
	provider := deps.Provider
	metadataFile := deps.Settings.MetadataFile

	repo, err := it.resolveRepository(ctx, provider, req)
	if err != nil {
		status.Fail(entities.ErrorMessage(err))
		return status
	}
	status.Repository = repo.Ref()

	existing, err := provider.GetFileContent(ctx, repo, repo.DefaultBranch, metadataFile)
	if err != nil {
		status.Fail(entities.ErrorMessage(err))
		return status
	}
	if content, found := existing.Get(); found {
		it.registerExisting(ctx, deps, repo, content, &status)
		return status
	}

	if req.CodeOwnersFileAsEntityOwner {
		found, codeOwnersErr := it.hasCodeOwners(ctx, provider, repo)
		if codeOwnersErr != nil {
			status.Fail(entities.ErrorMessage(codeOwnersErr))
			return status
		}
		if !found {
			status.Fail(entities.ErrCodeCodeOwnersFileNotFound)
			return status
		}
	}

	input, err := it.changeRequestInput(deps, req, repo)
	if err != nil {
		status.Fail(entities.ErrorMessage(err))
		return status
	}

	openChangeRequest, err := provider.FindOpenChangeRequest(ctx, repo, metadataFile)
	if err != nil {
		status.Fail(entities.ErrorMessage(err))
		return status
	}
	if pr, found := openChangeRequest.Get(); found {
		input.Existing = &pr
		updated, updateErr := provider.CreateOrUpdateChangeRequest(ctx, repo, input)
		if updateErr != nil {
			status.Fail(entities.ErrorMessage(updateErr))
			return status
		}

		logger.Infof("[%s] Updated change request #%d for %s", provider.Name(), updated.Number, repo.FullName())
		status.Status = entities.StatusWaitPRApproval
		status.SetChangeRequest(provider.Name(), *updated)
		status.Touch(updated.UpdatedAt)
		return status
	}

	branch, err := provider.EnsureIntegrationBranch(ctx, repo, repo.DefaultBranch)
	if err != nil {
		status.Fail(entities.ErrorMessage(err))
		return status
	}
	input.Branch = branch.Name

	created, err := provider.CreateOrUpdateChangeRequest(ctx, repo, input)
	if err != nil {
		logger.Warnf("[%s] Failed to open change request for %s: %v", provider.Name(), repo.FullName(), err)
		status.Fail(entities.ErrorMessage(err))
		return status
	}

	logger.Infof("[%s] Opened change request #%d for %s", provider.Name(), created.Number, repo.FullName())
	status.Status = entities.StatusWaitPRApproval
	status.SetChangeRequest(provider.Name(), *created)
	status.Touch(branch.CommittedAt)
	return status
}

// DryRun predicts the outcome of Execute without any mutation. Findings are
// reported as codes in a fixed order: conflict, file exists, empty
// repository, CODEOWNERS missing. A failing check records its message and
// the remaining checks still run.
func (it *ImportCommand) DryRun(
	ctx context.Context,
	deps ImportDependencies,
	req entities.ImportRequest,
) entities.ImportStatus {
	status := entities.NewImportStatus(req)
	provider := deps.Provider
	metadataFile := deps.Settings.MetadataFile

	repo, err := it.resolveRepository(ctx, provider, req)
	if err != nil {
		status.Errors = append(status.Errors, entities.ErrorMessage(err))
		return status
	}
	status.Repository = repo.Ref()

	report := func(found bool, code string, checkErr error) {
		switch {
		case checkErr != nil:
			status.Errors = append(status.Errors, entities.ErrorMessage(checkErr))
		case found:
			status.Errors = append(status.Errors, code)
		}
	}

	if req.CatalogEntityName != "" {
		conflict, conflictErr := it.hasConflict(ctx, deps, repo, req.CatalogEntityName)
		report(conflict, entities.ErrCodeCatalogEntityConflict, conflictErr)
	}

	existing, err := provider.GetFileContent(ctx, repo, repo.DefaultBranch, metadataFile)
	report(existing.IsFound(), entities.ErrCodeCatalogInfoFileExists, err)

	contributors, err := provider.GetContributorsCount(ctx, repo)
	report(contributors == 0, entities.ErrCodeRepoEmpty, err)

	if req.CodeOwnersFileAsEntityOwner {
		found, codeOwnersErr := it.hasCodeOwners(ctx, provider, repo)
		report(!found, entities.ErrCodeCodeOwnersFileNotFound, codeOwnersErr)
	}

	logger.Debugf("[%s] Dry run of %s found %v", provider.Name(), repo.FullName(), status.Errors)
	return status
}

// resolveRepository parses the submitted URL and asks the provider for the
// repository. The provider's answer is authoritative for every field it reports.
func (it *ImportCommand) resolveRepository(
	ctx context.Context,
	provider repositories.ProviderRepository,
	req entities.ImportRequest,
) (entities.Repository, error) {
	location, err := provider.ParseRepositoryURL(req.Repository.URL)
	if err != nil {
		return entities.Repository{}, err
	}

	lookup, err := provider.GetRepository(ctx, location.Organization, location.Name)
	if err != nil {
		return entities.Repository{}, err
	}
	repo, found := lookup.Get()
	if !found {
		return entities.Repository{}, fmt.Errorf(
			"%w: %s/%s", entities.ErrRepositoryNotFound, location.Organization, location.Name,
		)
	}

	if repo.Name == "" {
		repo.Name = location.Name
	}
	if repo.Organization == "" {
		repo.Organization = location.Organization
	}
	if repo.URL == "" {
		repo.URL = strings.TrimSuffix(req.Repository.URL, ".git")
	}
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = req.Repository.DefaultBranch
	}
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = fallbackBranch
	}
	return repo, nil
}

// registerExisting registers the metadata file already on the default branch
// and asks the catalog to refresh the entity it describes.
func (it *ImportCommand) registerExisting(
	ctx context.Context,
	deps ImportDependencies,
	repo entities.Repository,
	content string,
	status *entities.ImportStatus,
) {
	target := deps.Provider.FileURL(repo, repo.DefaultBranch, deps.Settings.MetadataFile)
	result, err := deps.Catalog.RegisterLocation(ctx, target, false)
	if err != nil {
		status.Fail(entities.ErrorMessage(err))
		return
	}

	logger.Infof("[%s] Registered %s", deps.Provider.Name(), target)
	status.Status = entities.StatusAdded
	status.Touch(repo.UpdatedAt)

	entityRef := refreshTarget(result, content)
	if entityRef == "" {
		logger.Warnf("[%s] No entity to refresh for %s", deps.Provider.Name(), target)
		return
	}
	if refreshErr := deps.Catalog.RefreshEntity(ctx, entityRef); refreshErr != nil {
		logger.Warnf("[%s] Failed to refresh %s: %v", deps.Provider.Name(), entityRef, refreshErr)
	}
}

// refreshTarget picks the entity to refresh: the first one the catalog
// reported, else the first one declared in the metadata file.
func refreshTarget(result entities.LocationResult, content string) string {
	if len(result.Entities) > 0 {
		return result.Entities[0].Ref()
	}

	declared, err := entities.ParseCatalogInfo(content)
	if err != nil || len(declared) == 0 {
		return ""
	}
	return declared[0].Ref()
}

// hasConflict reports whether an entity with the name is already tracked
// from a location other than this repository's metadata file.
func (it *ImportCommand) hasConflict(
	ctx context.Context,
	deps ImportDependencies,
	repo entities.Repository,
	entityName string,
) (bool, error) {
	result, err := deps.Catalog.QueryEntities(ctx, entities.EntityFilter{"metadata.name": entityName})
	if err != nil {
		return false, err
	}

	target := deps.Provider.FileURL(repo, repo.DefaultBranch, deps.Settings.MetadataFile)
	for _, entity := range result.Items {
		if !strings.EqualFold(entity.ManagedByLocation(), target) {
			return true, nil
		}
	}
	return false, nil
}

func (it *ImportCommand) hasCodeOwners(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
) (bool, error) {
	for _, path := range provider.CodeOwnersPaths() {
		lookup, err := provider.GetFileContent(ctx, repo, repo.DefaultBranch, path)
		if err != nil {
			return false, err
		}
		if lookup.IsFound() {
			return true, nil
		}
	}
	return false, nil
}

// changeRequestInput builds the metadata file change: the caller's content
// or a synthesized default, and the caller's PR text or the configured one.
func (it *ImportCommand) changeRequestInput(
	deps ImportDependencies,
	req entities.ImportRequest,
	repo entities.Repository,
) (entities.ChangeRequestInput, error) {
	content := req.CatalogInfoContent
	if content == "" {
		synthesized, err := entities.NewCatalogInfo(entities.CatalogInfoInput{
			EntityName:        req.CatalogEntityName,
			Repository:        repo,
			ProjectSlugKey:    deps.Provider.ProjectSlugAnnotation(),
			CodeOwnersAsOwner: req.CodeOwnersFileAsEntityOwner,
		})
		if err != nil {
			return entities.ChangeRequestInput{}, err
		}
		content = synthesized
	}

	overrides := req.PullRequestOptionsFor(deps.Provider.Name())
	title := overrides.Title
	if title == "" {
		title = deps.Settings.PRTitle
	}
	body := overrides.Body
	if body == "" {
		body = deps.Settings.PRBody
	}

	return entities.ChangeRequestInput{
		Branch:        deps.Provider.IntegrationBranch(),
		BaseBranch:    repo.DefaultBranch,
		Path:          deps.Settings.MetadataFile,
		Content:       content,
		Title:         title,
		Body:          body,
		CommitMessage: title,
	}, nil
}
