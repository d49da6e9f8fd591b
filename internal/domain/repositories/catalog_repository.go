package repositories

import (
	"context"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// CatalogRepository is the boundary to the software catalog service.
type CatalogRepository interface {
	// RegisterLocation registers (or, with dryRun, validates) a metadata file URL.
	RegisterLocation(ctx context.Context, target string, dryRun bool) (entities.LocationResult, error)

	// QueryEntities returns the entities matching every field of the filter.
	QueryEntities(ctx context.Context, filter entities.EntityFilter) (entities.EntityQueryResult, error)

	// RefreshEntity schedules a refresh of the entity; the catalog processes it asynchronously.
	RefreshEntity(ctx context.Context, entityRef string) error
}
