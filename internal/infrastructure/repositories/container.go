package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	catalogRepo "github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/catalog"
	ghRepo "github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/github"
	glRepo "github.com/rios0rios0/bulkimport/internal/infrastructure/repositories/gitlab"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register provider registry with all provider factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register(entities.ProviderGitHub, ghRepo.NewProviderRepository)
		reg.Register(entities.ProviderGitLab, glRepo.NewProviderRepository)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(func() CatalogFactory {
		return catalogRepo.NewCatalogRepository
	}); err != nil {
		return err
	}

	return nil
}
