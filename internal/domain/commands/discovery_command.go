package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/golang-lru/v2/expirable"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	"github.com/rios0rios0/bulkimport/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/bulkimport/internal/infrastructure/repositories"
)

const (
	discoveryCacheSize = 128
	discoveryCacheTTL  = time.Minute
)

// DiscoveryResult merges one listing across every configured provider.
type DiscoveryResult[T any] struct {
	Items  []T      `json:"items"`
	Errors []string `json:"errors"`
}

// Discovery is the interface for the read-only organization and repository listings.
type Discovery interface {
	ListOrganizations(
		ctx context.Context,
		settings *entities.Settings,
		opts entities.ListOptions,
	) (DiscoveryResult[entities.Organization], error)
	ListRepositories(
		ctx context.Context,
		settings *entities.Settings,
		org string,
		opts entities.ListOptions,
	) (DiscoveryResult[entities.Repository], error)
}

// DiscoveryCommand lists organizations and repositories from every configured
// provider. A provider that fails is reported in Errors; the call itself only
// fails when no provider answered. Complete answers are cached briefly.
type DiscoveryCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	organizations    *expirable.LRU[string, DiscoveryResult[entities.Organization]]
	repositories     *expirable.LRU[string, DiscoveryResult[entities.Repository]]
}

// NewDiscoveryCommand creates a new DiscoveryCommand.
func NewDiscoveryCommand(providerRegistry *infraRepos.ProviderRegistry) *DiscoveryCommand {
	return &DiscoveryCommand{
		providerRegistry: providerRegistry,
		organizations: expirable.NewLRU[string, DiscoveryResult[entities.Organization]](
			discoveryCacheSize, nil, discoveryCacheTTL,
		),
		repositories: expirable.NewLRU[string, DiscoveryResult[entities.Repository]](
			discoveryCacheSize, nil, discoveryCacheTTL,
		),
	}
}

func (it *DiscoveryCommand) ListOrganizations(
	ctx context.Context,
	settings *entities.Settings,
	opts entities.ListOptions,
) (DiscoveryResult[entities.Organization], error) {
	key := cacheKey("", opts)
	if cached, ok := it.organizations.Get(key); ok {
		return cached, nil
	}

	result, err := collect(ctx, it.session(settings),
		func(ctx context.Context, provider repositories.ProviderRepository) ([]entities.Organization, error) {
			page, listErr := provider.ListOrganizations(ctx, opts)
			return page.Items, listErr
		})
	if err == nil && len(result.Errors) == 0 {
		it.organizations.Add(key, result)
	}
	return result, err
}

func (it *DiscoveryCommand) ListRepositories(
	ctx context.Context,
	settings *entities.Settings,
	org string,
	opts entities.ListOptions,
) (DiscoveryResult[entities.Repository], error) {
	key := cacheKey(org, opts)
	if cached, ok := it.repositories.Get(key); ok {
		return cached, nil
	}

	result, err := collect(ctx, it.session(settings),
		func(ctx context.Context, provider repositories.ProviderRepository) ([]entities.Repository, error) {
			page, listErr := provider.ListRepositories(ctx, org, opts)
			return page.Items, listErr
		})
	if err == nil && len(result.Errors) == 0 {
		it.repositories.Add(key, result)
	}
	return result, err
}

func (it *DiscoveryCommand) session(settings *entities.Settings) *infraRepos.ProviderSession {
	importSettings := settings.Import
	importSettings.ApplyDefaults()
	return it.providerRegistry.NewSession(settings.Providers, importSettings)
}

// collect queries every provider concurrently and merges the answers in
// provider order. It fails only when not a single provider succeeded.
func collect[T any](
	ctx context.Context,
	session *infraRepos.ProviderSession,
	list func(context.Context, repositories.ProviderRepository) ([]T, error),
) (DiscoveryResult[T], error) {
	providers, failures := session.All()

	var merr *multierror.Error
	if len(failures) > 0 {
		merr = multierror.Append(merr, failures...)
	}

	pages := make([][]T, len(providers))
	succeeded := make([]bool, len(providers))
	var (
		group errgroup.Group
		mu    sync.Mutex
	)
	for i, provider := range providers {
		group.Go(func() error {
			items, err := list(ctx, provider)
			if err != nil {
				logger.Warnf("[%s] Listing failed: %v", provider.Name(), err)
				mu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("%s: %s", provider.Name(), entities.ErrorMessage(err)))
				mu.Unlock()
				return nil
			}
			pages[i] = items
			succeeded[i] = true
			return nil
		})
	}
	_ = group.Wait()

	result := DiscoveryResult[T]{Items: []T{}, Errors: []string{}}
	anySucceeded := false
	for i, items := range pages {
		anySucceeded = anySucceeded || succeeded[i]
		result.Items = append(result.Items, items...)
	}
	if merr != nil {
		for _, err := range merr.Errors {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if anySucceeded {
		return result, nil
	}
	if merr == nil {
		result.Errors = append(result.Errors, entities.ErrProviderNotConfigured.Error())
		return result, entities.ErrProviderNotConfigured
	}
	return result, fmt.Errorf("every provider failed: %w", merr)
}

func cacheKey(org string, opts entities.ListOptions) string {
	return fmt.Sprintf("%s|%s|%d|%d", org, opts.Search, opts.Page, opts.PerPage)
}
