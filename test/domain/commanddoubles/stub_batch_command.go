//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// StubBatchCommand is a stub implementation of commands.Batch.
type StubBatchCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Results          []entities.ImportStatus
	LastSettings     *entities.Settings
	LastRequests     []entities.ImportRequest
	LastDryRun       bool
}

var _ commands.Batch = (*StubBatchCommand)(nil)

func (s *StubBatchCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	requests []entities.ImportRequest,
	dryRun bool,
) ([]entities.ImportStatus, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastRequests = requests
	s.LastDryRun = dryRun
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	return s.Results, nil
}
