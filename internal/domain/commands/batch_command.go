package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	infraRepos "github.com/rios0rios0/bulkimport/internal/infrastructure/repositories"
)

// Batch is the interface for importing a batch of repositories.
type Batch interface {
	Execute(
		ctx context.Context,
		settings *entities.Settings,
		requests []entities.ImportRequest,
		dryRun bool,
	) ([]entities.ImportStatus, error)
}

// BatchCommand fans a batch out to the import procedure with bounded
// concurrency and returns one status per item, in request order.
type BatchCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	catalogFactory   infraRepos.CatalogFactory
	importer         Import
}

// NewBatchCommand creates a new BatchCommand.
func NewBatchCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	catalogFactory infraRepos.CatalogFactory,
	importer Import,
) *BatchCommand {
	return &BatchCommand{
		providerRegistry: providerRegistry,
		catalogFactory:   catalogFactory,
		importer:         importer,
	}
}

// Execute validates the batch, then imports every item. Only an invalid batch
// or an unusable catalog configuration fails the whole call; everything else
// is recorded on the item it happened to.
func (it *BatchCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	requests []entities.ImportRequest,
	dryRun bool,
) ([]entities.ImportStatus, error) {
	if err := entities.ValidateBatch(requests); err != nil {
		return nil, err
	}

	importSettings := settings.Import
	importSettings.ApplyDefaults()

	catalog, err := it.catalogFactory(settings.Catalog, importSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog client: %w", err)
	}
	session := it.providerRegistry.NewSession(settings.Providers, importSettings)

	batchLog := logger.WithFields(logger.Fields{
		"batch_id": uuid.NewString(),
		"dry_run":  dryRun,
		"items":    len(requests),
	})
	batchLog.Info("Import batch started")

	results := make([]entities.ImportStatus, len(requests))
	var group errgroup.Group
	group.SetLimit(importSettings.Workers)
	for i, req := range requests {
		group.Go(func() error {
			results[i] = it.importItem(ctx, session, ImportDependencies{
				Catalog:  catalog,
				Settings: importSettings,
			}, req, dryRun, batchLog.WithField("item", i))
			return nil
		})
	}
	_ = group.Wait()

	failed := 0
	for _, result := range results {
		if result.Status == entities.StatusPRError || (dryRun && len(result.Errors) > 0) {
			failed++
		}
	}
	batchLog.WithField("failed", failed).Info("Import batch finished")

	return results, nil
}

// importItem runs one item to completion. A panic is contained to the item.
func (it *BatchCommand) importItem(
	ctx context.Context,
	session *infraRepos.ProviderSession,
	deps ImportDependencies,
	req entities.ImportRequest,
	dryRun bool,
	itemLog *logger.Entry,
) (status entities.ImportStatus) {
	defer func() {
		if recovered := recover(); recovered != nil {
			itemLog.Errorf("Import of %s panicked: %v", req.Repository.URL, recovered)
			status = failedStatus(req, dryRun, fmt.Sprintf("unexpected error: %v", recovered))
		}
	}()

	providerName, ok := req.ApprovalTool.ProviderName()
	if !ok {
		return failedStatus(req, dryRun,
			fmt.Sprintf("%s: %q", entities.ErrUnsupportedApprovalTool, req.ApprovalTool))
	}

	provider, err := session.Resolve(providerName, req.Repository.URL)
	if err != nil {
		itemLog.Warnf("No provider for %s: %v", req.Repository.URL, err)
		return failedStatus(req, dryRun, entities.ErrorMessage(err))
	}
	deps.Provider = provider

	if dryRun {
		return it.importer.DryRun(ctx, deps, req)
	}
	return it.importer.Execute(ctx, deps, req)
}

func failedStatus(req entities.ImportRequest, dryRun bool, message string) entities.ImportStatus {
	status := entities.NewImportStatus(req)
	if dryRun {
		status.Errors = append(status.Errors, message)
		return status
	}
	status.Fail(message)
	return status
}
