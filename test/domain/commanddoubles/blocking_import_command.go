//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// BlockingImportCommand is an implementation of commands.Import that holds
// every item until Release is closed, recording how many ran at once.
type BlockingImportCommand struct {
	Started chan struct{}
	Release chan struct{}

	mu       sync.Mutex
	inFlight int
	peak     int
}

var _ commands.Import = (*BlockingImportCommand)(nil)

// NewBlockingImportCommand creates a BlockingImportCommand able to signal up to capacity starts.
func NewBlockingImportCommand(capacity int) *BlockingImportCommand {
	return &BlockingImportCommand{
		Started: make(chan struct{}, capacity),
		Release: make(chan struct{}),
	}
}

// Peak is the highest number of items observed running at the same time.
func (b *BlockingImportCommand) Peak() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

func (b *BlockingImportCommand) Execute(
	ctx context.Context,
	_ commands.ImportDependencies,
	req entities.ImportRequest,
) entities.ImportStatus {
	b.hold(ctx)
	status := entities.NewImportStatus(req)
	status.Status = entities.StatusWaitPRApproval
	return status
}

func (b *BlockingImportCommand) DryRun(
	ctx context.Context,
	_ commands.ImportDependencies,
	req entities.ImportRequest,
) entities.ImportStatus {
	b.hold(ctx)
	return entities.NewImportStatus(req)
}

func (b *BlockingImportCommand) hold(ctx context.Context) {
	b.mu.Lock()
	b.inFlight++
	b.peak = max(b.peak, b.inFlight)
	b.mu.Unlock()

	b.Started <- struct{}{}
	select {
	case <-b.Release:
	case <-ctx.Done():
	}

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()
}
