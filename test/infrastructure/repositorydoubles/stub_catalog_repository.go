//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
)

// StubCatalogRepository implements repositories.CatalogRepository with canned
// answers and records the calls it receives.
type StubCatalogRepository struct {
	mu sync.Mutex

	Location    entities.LocationResult
	RegisterErr error
	Entities    []entities.CatalogEntity
	QueryErr    error
	RefreshErr  error

	RegisteredTargets []string
	Queries           []entities.EntityFilter
	RefreshedRefs     []string
}

var _ repositories.CatalogRepository = (*StubCatalogRepository)(nil)

func (c *StubCatalogRepository) RegisterLocation(
	_ context.Context, target string, _ bool,
) (entities.LocationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.RegisteredTargets = append(c.RegisteredTargets, target)
	return c.Location, c.RegisterErr
}

func (c *StubCatalogRepository) QueryEntities(
	_ context.Context, filter entities.EntityFilter,
) (entities.EntityQueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Queries = append(c.Queries, filter)
	return entities.EntityQueryResult{Items: c.Entities, TotalItems: len(c.Entities)}, c.QueryErr
}

func (c *StubCatalogRepository) RefreshEntity(_ context.Context, entityRef string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.RefreshedRefs = append(c.RefreshedRefs, entityRef)
	return c.RefreshErr
}
