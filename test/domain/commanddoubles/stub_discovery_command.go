//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// StubDiscoveryCommand is a stub implementation of commands.Discovery.
type StubDiscoveryCommand struct {
	Organizations commands.DiscoveryResult[entities.Organization]
	Repositories  commands.DiscoveryResult[entities.Repository]
	Err           error

	LastOrg     string
	LastOptions entities.ListOptions
}

var _ commands.Discovery = (*StubDiscoveryCommand)(nil)

func (s *StubDiscoveryCommand) ListOrganizations(
	_ context.Context,
	_ *entities.Settings,
	opts entities.ListOptions,
) (commands.DiscoveryResult[entities.Organization], error) {
	s.LastOptions = opts
	return s.Organizations, s.Err
}

func (s *StubDiscoveryCommand) ListRepositories(
	_ context.Context,
	_ *entities.Settings,
	org string,
	opts entities.ListOptions,
) (commands.DiscoveryResult[entities.Repository], error) {
	s.LastOrg = org
	s.LastOptions = opts
	return s.Repositories, s.Err
}
